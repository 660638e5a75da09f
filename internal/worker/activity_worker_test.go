package worker

import (
	"encoding/json"
	"path/filepath"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyai-backend/internal/model"
	"studyai-backend/internal/repository"
)

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func openTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	if migrate {
		require.NoError(t, db.AutoMigrate(&model.StudyActivity{}))
	}
	return db
}

func activityBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(model.StudyActivity{
		UserID: 1,
		Action: model.ActivityDocumentUploaded,
		Detail: "notes.txt",
	})
	require.NoError(t, err)
	return body
}

func TestHandleDeliveryPersistsAndAcks(t *testing.T) {
	db := openTestDB(t, true)
	repo := repository.NewActivityRepository(db)
	w := NewActivityPersistWorker(nil, repo, "q")

	ack := &fakeAcknowledger{}
	w.handleDelivery(amqp.Delivery{Acknowledger: ack, Body: activityBody(t)})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)

	stored, err := repo.ListByUserID(1, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.ActivityDocumentUploaded, stored[0].Action)
}

func TestHandleDeliveryDropsUndecodable(t *testing.T) {
	repo := repository.NewActivityRepository(openTestDB(t, true))
	w := NewActivityPersistWorker(nil, repo, "q")

	ack := &fakeAcknowledger{}
	w.handleDelivery(amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestHandleDeliveryRequeuesPersistFailureOnce(t *testing.T) {
	// no migration: every insert fails
	repo := repository.NewActivityRepository(openTestDB(t, false))
	w := NewActivityPersistWorker(nil, repo, "q")

	first := &fakeAcknowledger{}
	w.handleDelivery(amqp.Delivery{Acknowledger: first, Body: activityBody(t)})
	assert.True(t, first.nacked)
	assert.True(t, first.requeue)

	second := &fakeAcknowledger{}
	w.handleDelivery(amqp.Delivery{Acknowledger: second, Body: activityBody(t), Redelivered: true})
	assert.True(t, second.nacked)
	assert.False(t, second.requeue)
}
