package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/erp-engine/generic"
)

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

var _ generic.HolidayCalendar = (*Store)(nil)

// SaveHoliday saves a holiday to the database.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.CompanyID,
		formatDate(h.Date),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return s.reloadHolidaysLocked(ctx)
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return s.reloadHolidaysLocked(ctx)
}

// GetHolidays returns all holidays for a company in a given year.
// Includes both company-specific and global holidays.
func (s *Store) GetHolidays(companyID string, year int) []generic.Holiday {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	return s.holidays.GetHolidays(companyID, year)
}

// IsHoliday checks if a date is a holiday for the given company.
func (s *Store) IsHoliday(companyID string, date generic.TimePoint) bool {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	return s.holidays.IsHoliday(companyID, date)
}

// GetAllHolidays returns the stored holidays of a company plus the global ones.
func (s *Store) GetAllHolidays(ctx context.Context, companyID string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryHolidays(ctx,
		"SELECT id, company_id, date, name, recurring FROM holidays WHERE company_id = ? OR company_id = '' ORDER BY date ASC",
		companyID)
}

func (s *Store) loadHolidays(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reloadHolidaysLocked(ctx)
}

// reloadHolidaysLocked refreshes the in-process calendar. Callers hold s.mu.
func (s *Store) reloadHolidaysLocked(ctx context.Context) error {
	holidays, err := s.queryHolidays(ctx,
		"SELECT id, company_id, date, name, recurring FROM holidays ORDER BY date ASC")
	if err != nil {
		return err
	}
	s.hmu.Lock()
	s.holidays.Holidays = holidays
	s.hmu.Unlock()
	return nil
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]generic.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h       generic.Holiday
			dateStr string
		)
		if err := rows.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDate(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
