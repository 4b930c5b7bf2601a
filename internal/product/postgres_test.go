package product

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"odil-be/internal/variant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowColumns = []string{
	"id", "name", "sku", "category", "price", "description", "images", "specs",
	"variants", "inventory", "sourceid", "hidden", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres"), ""), mock
}

func TestPGRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		rows := sqlmock.NewRows(rowColumns).
			AddRow("owner-1", "Case", "SKU-1", "Phone Cases", []byte("12.50"), "",
				[]byte(`["a.jpg"]`), []byte(`["__family:iPhone"]`),
				[]byte(`{"Color":["Red","Blue"],"__prices":{"Color:Blue":14}}`),
				[]byte(`{"Color:Blue":2}`), nil, false, now, now).
			AddRow("", "No id", "", "", []byte("1"), "",
				[]byte(`[]`), []byte(`[]`), []byte(`{}`), []byte(`{}`), nil, false, now, now)

		mock.ExpectQuery(`(?s)SELECT id, name, .* FROM products ORDER BY created_at DESC`).
			WillReturnRows(rows)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 12.5, list[0].Price)
		assert.Equal(t, "iPhone", list[0].Family)
		assert.Equal(t, 14.0, list[0].PriceOverrides["Color:Blue"])
		assert.Equal(t, 2, list[0].Inventory["Color:Blue"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QueryError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`(?s)SELECT .*`).WillReturnError(errors.New("db error"))

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, ErrFailedListProducts)
	})
}

func TestPGRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	src := "chg-20w-usbc"

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`(?s)INSERT INTO products .* ON CONFLICT \(id\) DO UPDATE SET .* RETURNING`).
			WithArgs("owner-1", "Charger", "CHG", "Chargers", 20.0, "",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), false).
			WillReturnRows(sqlmock.NewRows(rowColumns).AddRow(
				"owner-1", "Charger", "CHG", "Chargers", []byte("20"), "",
				[]byte(`[]`), []byte(`[]`), []byte(`{}`), []byte(`{}`), src, false, now, now))

		saved, err := repo.Upsert(ctx, Product{
			ID: "owner-1", Name: "Charger", SKU: "CHG", Category: "Chargers", Price: 20, SourceID: src,
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, src, saved.SourceID)
		assert.Equal(t, now, saved.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unconfirmed write", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`(?s)INSERT INTO products`).WillReturnError(sql.ErrNoRows)

		saved, err := repo.Upsert(ctx, Product{ID: "owner-1"})
		assert.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("DBError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`(?s)INSERT INTO products`).WillReturnError(errors.New("boom"))

		_, err := repo.Upsert(ctx, Product{ID: "owner-1"})
		assert.ErrorIs(t, err, ErrFailedUpsertProduct)
	})

	t.Run("MissingID", func(t *testing.T) {
		repo, _ := newMockRepo(t)
		_, err := repo.Upsert(ctx, Product{})
		assert.ErrorIs(t, err, ErrMissingID)
	})
}

func TestPGRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
			WithArgs("owner-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		found, err := repo.Delete(ctx, "owner-1")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("Missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM products`).WillReturnResult(sqlmock.NewResult(0, 0))

		found, err := repo.Delete(ctx, "owner-x")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("DBError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM products`).WillReturnError(errors.New("boom"))

		_, err := repo.Delete(ctx, "owner-1")
		assert.ErrorIs(t, err, ErrFailedDeleteProduct)
	})
}

type fakeListener struct {
	ch        chan *pq.Notification
	listenErr error
	closed    chan struct{}
}

func (f *fakeListener) Listen(string) error                          { return f.listenErr }
func (f *fakeListener) NotificationChannel() <-chan *pq.Notification { return f.ch }
func (f *fakeListener) Ping() error                                  { return nil }
func (f *fakeListener) Close() error                                 { close(f.closed); return nil }

func TestPGRepository_Subscribe(t *testing.T) {
	repo, _ := newMockRepo(t)
	fake := &fakeListener{ch: make(chan *pq.Notification), closed: make(chan struct{})}
	repo.newListener = func(string, func(pq.ListenerEventType, error)) changeListener { return fake }

	events := make(chan Event, 4)
	sub, err := repo.Subscribe(context.Background(), func(ev Event) { events <- ev })
	require.NoError(t, err)

	fake.ch <- &pq.Notification{Channel: ChangeChannel, Extra: `{"op":"INSERT","record":{"id":"owner-1","price":5,"variants":{"Color":["Red"]}}}`}
	fake.ch <- &pq.Notification{Channel: ChangeChannel, Extra: `not json`}
	fake.ch <- nil
	fake.ch <- &pq.Notification{Channel: ChangeChannel, Extra: `{"op":"DELETE","id":"owner-1"}`}

	ev := <-events
	assert.Equal(t, EventInserted, ev.Type)
	assert.Equal(t, variant.Groups{"Color": {"Red"}}, ev.Record.Variants)
	assert.Equal(t, EventResync, (<-events).Type)
	assert.Equal(t, Event{Type: EventDeleted, ID: "owner-1"}, <-events)

	require.NoError(t, sub.Close())
	<-fake.closed
}

func TestPGRepository_SubscribeListenError(t *testing.T) {
	repo, _ := newMockRepo(t)
	fake := &fakeListener{listenErr: errors.New("refused"), closed: make(chan struct{})}
	repo.newListener = func(string, func(pq.ListenerEventType, error)) changeListener { return fake }

	_, err := repo.Subscribe(context.Background(), func(Event) {})
	assert.ErrorIs(t, err, ErrFailedSubscribe)
}

func TestDecodeNotification(t *testing.T) {
	_, err := DecodeNotification([]byte(`{"op":"TRUNCATE"}`))
	assert.Error(t, err)

	_, err = DecodeNotification([]byte(`{"op":"UPDATE"}`))
	assert.Error(t, err)

	ev, err := DecodeNotification([]byte(`{"op":"delete","record":{"id":"owner-3"}}`))
	require.NoError(t, err)
	assert.Equal(t, "owner-3", ev.ID)
}
