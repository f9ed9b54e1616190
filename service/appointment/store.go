package appointment

import (
	"errors"

	"github.com/careslot/careslot-server/cmd/models"
	"gorm.io/gorm"
)

// Store persists appointment records. Implementations must make
// UpdateRequested and MarkPaid conditional writes so that concurrent
// transitions on the same id cannot both apply.
type Store interface {
	Create(appt *models.Appointment) error
	GetByID(id string) (*models.Appointment, error)
	// UpdateRequested applies updates only while the record is still in
	// the requested state. Returns false when the guard refused the write.
	UpdateRequested(id string, updates map[string]interface{}) (bool, error)
	// MarkPaid sets payment_done only on a confirmed online record that
	// is not yet paid. Returns false when the guard refused the write.
	MarkPaid(id string) (bool, error)
	RecordTransaction(tx *models.Transaction) error
	List(status string, page, pageSize int) ([]models.Appointment, int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(appt *models.Appointment) error {
	return s.db.Create(appt).Error
}

func (s *GormStore) GetByID(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (s *GormStore) UpdateRequested(id string, updates map[string]interface{}) (bool, error) {
	result := s.db.Model(&models.Appointment{}).
		Where("id = ? AND confirmed = ? AND declined = ?", id, false, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) MarkPaid(id string) (bool, error) {
	result := s.db.Model(&models.Appointment{}).
		Where("id = ? AND confirmed = ? AND consult_type = ? AND payment_done = ?", id, true, ConsultOnline, false).
		Update("payment_done", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) RecordTransaction(tx *models.Transaction) error {
	return s.db.Create(tx).Error
}

func (s *GormStore) List(status string, page, pageSize int) ([]models.Appointment, int64, error) {
	query := s.db.Model(&models.Appointment{})

	switch status {
	case "requested":
		query = query.Where("confirmed = ? AND declined = ?", false, false)
	case "awaiting_payment":
		query = query.Where("confirmed = ? AND payment_done = ?", true, false)
	case "paid":
		query = query.Where("confirmed = ? AND payment_done = ?", true, true)
	case "declined":
		query = query.Where("declined = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []models.Appointment
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
		Order("created_at DESC").Find(&appointments).Error; err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}
