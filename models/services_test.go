package models

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// testNow is inside financial year 2024-25 and calendar year 24.
var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

type recordedEvents struct {
	mu   sync.Mutex
	msgs []config.PubSubMessage
}

func (r *recordedEvents) Publish(_ context.Context, msg config.PubSubMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return fmt.Sprintf("msg-%d", len(r.msgs)), nil
}

func (r *recordedEvents) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Entity+":"+m.Action)
	}
	return out
}

type fakeUploader struct {
	name string
	data []byte
}

func (u *fakeUploader) Upload(_ context.Context, objectName string, data []byte) (string, error) {
	u.name = objectName
	u.data = data
	return "gs://test-bucket/" + objectName, nil
}

func newTestStore() *store.MemoryStore {
	n := 0
	clock := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	return store.NewMemoryStore(
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("doc-%d", n)
		}),
		store.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func newTestDeps(st store.Store) Deps {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return Deps{
		Store:  st,
		Logger: logger,
		Clock:  func() time.Time { return testNow },
	}
}

func newTestServices(t *testing.T, opts ...func(*Deps)) *Services {
	t.Helper()
	deps := newTestDeps(newTestStore())
	for _, opt := range opts {
		opt(&deps)
	}
	return NewServices(deps)
}

func mustCustomer(t *testing.T, svc *Services, phone, name string) *Customer {
	t.Helper()
	c, err := svc.Customers.Save(context.Background(), NewCustomer{Phone: phone, Name: name}, false)
	require.NoError(t, err)
	return c
}

func sampleInvoice(number, date string) InvoiceInput {
	return InvoiceInput{
		InvoiceNumber: number,
		Date:          date,
		CustomerName:  "Ravi Textiles",
		CustomerPhone: "9876543210",
		State:         "Tamil Nadu",
		StateCode:     "33",
		LineItems: []LineItemInput{
			{Description: "Cotton Yarn", HSNCode: "5205", Qty: "2", Rate: "150.50"},
		},
	}
}
