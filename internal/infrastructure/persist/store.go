package persist

import (
	"encoding/json"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shoplink/internal/domain/entity"
	"shoplink/pkg/errors"
)

// widgetRecord is the durable subset of the presence state. Open and
// Typing are intentionally absent: they reset on every load.
type widgetRecord struct {
	ID            uint `gorm:"primaryKey"`
	Minimized     bool
	Pinned        bool
	UnreadCount   int
	CurrentSeller string
	UpdatedAt     time.Time
}

// backlogRecord is one persisted message of the widget backlog. Payload
// holds the full message JSON; Seq preserves insertion order.
type backlogRecord struct {
	MessageID string `gorm:"primaryKey"`
	ThreadID  string `gorm:"index"`
	Seq       int
	Payload   string
	CreatedAt time.Time
}

// Store persists presence state and the message backlog to a local
// sqlite database, the durable analog of browser local storage.
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, errors.Internal("failed to open state database", err)
	}
	if err := db.AutoMigrate(&widgetRecord{}, &backlogRecord{}); err != nil {
		return nil, errors.Internal("failed to migrate state database", err)
	}
	return &Store{db: db}, nil
}

// Save writes the durable subset of the given state, replacing whatever
// was stored before.
func (s *Store) Save(state entity.PresenceState) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		record := widgetRecord{
			ID:            1,
			Minimized:     state.Minimized,
			Pinned:        state.Pinned,
			UnreadCount:   state.UnreadCount,
			CurrentSeller: state.CurrentSeller,
			UpdatedAt:     time.Now(),
		}
		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		if err := tx.Where("1 = 1").Delete(&backlogRecord{}).Error; err != nil {
			return err
		}
		for i, msg := range state.Messages {
			if msg.Pending {
				// Unconfirmed messages do not survive a reload.
				continue
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			row := backlogRecord{
				MessageID: msg.ID,
				ThreadID:  msg.ChatID,
				Seq:       i,
				Payload:   string(payload),
				CreatedAt: msg.CreatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load restores the persisted state. Transient flags come back reset;
// found reports whether any state had been persisted at all.
func (s *Store) Load() (state entity.PresenceState, found bool, err error) {
	var record widgetRecord
	result := s.db.First(&record, 1)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return entity.PresenceState{}, false, nil
		}
		return entity.PresenceState{}, false, errors.Internal("failed to load widget state", result.Error)
	}

	state = entity.PresenceState{
		Open:          false,
		Typing:        false,
		Minimized:     record.Minimized,
		Pinned:        record.Pinned,
		UnreadCount:   record.UnreadCount,
		CurrentSeller: record.CurrentSeller,
	}

	var rows []backlogRecord
	if err := s.db.Order("seq asc").Find(&rows).Error; err != nil {
		return entity.PresenceState{}, false, errors.Internal("failed to load message backlog", err)
	}
	for _, row := range rows {
		var msg entity.Message
		if err := json.Unmarshal([]byte(row.Payload), &msg); err != nil {
			continue
		}
		state.Messages = append(state.Messages, msg)
	}

	return state, true, nil
}

// Clear wipes all persisted state, used on logout.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&widgetRecord{}).Error; err != nil {
		return errors.Internal("failed to clear widget state", err)
	}
	if err := s.db.Where("1 = 1").Delete(&backlogRecord{}).Error; err != nil {
		return errors.Internal("failed to clear message backlog", err)
	}
	return nil
}
