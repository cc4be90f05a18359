package notifications

import (
	"log"
	"time"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"gorm.io/gorm"
)

const (
	defaultRetention = 30 * 24 * time.Hour
	pruneBatchSize   = 500
)

// Pruner deletes notifications past the retention window. It runs from the
// daily scheduler; deletions happen in fixed-size batches so a large backlog
// never turns into one giant statement.
type Pruner struct {
	db        *gorm.DB
	retention time.Duration
}

func NewPruner(db *gorm.DB) *Pruner {
	return &Pruner{db: db, retention: defaultRetention}
}

// Run deletes every notification older than the retention window and returns
// how many were removed.
func (p *Pruner) Run() (int64, error) {
	cutoff := time.Now().Add(-p.retention)
	var total int64

	for {
		var ids []string
		if err := p.db.Model(&models.Notification{}).
			Where("created_at < ?", cutoff).
			Order("created_at ASC").
			Limit(pruneBatchSize).
			Pluck("id", &ids).Error; err != nil {
			return total, err
		}
		if len(ids) == 0 {
			break
		}

		result := p.db.Where("id IN ?", ids).Delete(&models.Notification{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}

	if total > 0 {
		log.Printf("Pruned %d notifications older than %s", total, cutoff.Format(time.RFC3339))
	}
	return total, nil
}
