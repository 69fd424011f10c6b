// Package natsfeed carries change events over core NATS subjects, one subject
// per resource kind. Core NATS gives at-most-once delivery with no replay,
// which is exactly the feed contract: a consumer that was offline simply
// refetches through the cache instead of catching up on history.
package natsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/realtime"
)

const subjectPrefix = "garage.changes."

func subjectFor(kind model.Kind) string {
	return subjectPrefix + string(kind)
}

// Feed implements realtime.Feed and realtime.Publisher over one NATS
// connection.
type Feed struct {
	conn *nats.Conn
	log  *zap.Logger
}

// Connect dials the NATS server. The connection retries forever; subscription
// interest survives reconnects, missed events during an outage do not.
func Connect(url string, log *zap.Logger) (*Feed, error) {
	conn, err := nats.Connect(url,
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Feed{conn: conn, log: log}, nil
}

// Publish emits one change event on the kind's subject.
func (f *Feed) Publish(_ context.Context, ev model.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := f.conn.Publish(subjectFor(ev.Kind), data); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe binds a handler to the kind's subject. The filter, when present,
// is applied before the handler sees the event. NATS invokes one
// subscription's callback sequentially, preserving arrival order.
func (f *Feed) Subscribe(_ context.Context, kind model.Kind, fl *realtime.Filter, handler func(model.ChangeEvent)) (realtime.Subscription, error) {
	sub, err := f.conn.Subscribe(subjectFor(kind), func(msg *nats.Msg) {
		var ev model.ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			f.log.Warn("undecodable change event",
				zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		if fl != nil && !matches(fl, ev.Affected()) {
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subjectFor(kind), err)
	}
	return sub, nil
}

func matches(fl *realtime.Filter, rec *model.Row) bool {
	if rec == nil {
		return false
	}
	switch fl.Column {
	case "client_id":
		return rec.ClientID.String() == fl.Equals
	case "user_id":
		return rec.UserID.String() == fl.Equals
	case "id":
		return rec.ID.String() == fl.Equals
	}
	return false
}

// Close drains the connection so in-flight callbacks finish.
func (f *Feed) Close() {
	if err := f.conn.Drain(); err != nil {
		f.log.Warn("nats drain failed", zap.Error(err))
	}
}
