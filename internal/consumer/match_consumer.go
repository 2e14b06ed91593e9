package consumer

import (
	"encoding/json"
	"log"

	"github.com/Sspartak/football-app/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchConsumer mirrors match records owned by the room service into the
// local voting database.
type MatchConsumer struct {
	db *gorm.DB
}

func NewMatchConsumer(db *gorm.DB) *MatchConsumer {
	return &MatchConsumer{db: db}
}

func (mc *MatchConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			mc.handleMessage(msg)
		}
		log.Println("[MatchConsumer] channel closed, stopping consumer")
	}()
}

func (mc *MatchConsumer) handleMessage(msg amqp.Delivery) {
	var match models.Match
	if err := json.Unmarshal(msg.Body, &match); err != nil {
		log.Printf("[MatchConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	// Upsert: insert or update on conflict (same ID from the room service).
	// limit_ever_reached is owned by this service and never overwritten.
	result := mc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"room_id", "name", "max_players", "updated_at"}),
	}).Create(&match)

	if result.Error != nil {
		log.Printf("[MatchConsumer] failed to upsert match %s: %v", match.ID, result.Error)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[MatchConsumer] synced match %s: %s", match.ID, match.Name)
	msg.Ack(false)
}
