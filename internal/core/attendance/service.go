package attendance

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const defaultBulkConcurrency = 8

// Options は Service の動作設定です。
type Options struct {
	BulkConcurrency int
	Location        *time.Location
}

// Service は出欠台帳のユースケースをまとめます。
type Service struct {
	repo        Repository
	roster      RosterSource
	clock       Clock
	logger      logrus.FieldLogger
	concurrency int
	loc         *time.Location
}

// NewService は Service を生成します。
func NewService(repo Repository, roster RosterSource, clock Clock, logger logrus.FieldLogger, opts Options) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = defaultBulkConcurrency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		repo:        repo,
		roster:      roster,
		clock:       clock,
		logger:      logger,
		concurrency: opts.BulkConcurrency,
		loc:         opts.Location,
	}
}

// SetStatusInput は一件の出欠登録の入力です。
type SetStatusInput struct {
	EmployeeID string
	Day        string
	Status     string
	StartTime  string
}

// SetStatus は出欠を登録します。同じ社員・日の記録は置き換えられます。
func (s *Service) SetStatus(ctx context.Context, in SetStatusInput) (*Record, error) {
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	day, err := ParseDay(in.Day)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	record, err := s.buildRecord(employeeID, day, status, in.StartTime)
	if err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, record)
}

// BulkMarkPresentInput は一括出勤登録の入力です。EmployeeIDs が空の場合は既定の対象社員全員です。
type BulkMarkPresentInput struct {
	EmployeeIDs []string
	Day         string
	StartTime   string
}

// BulkMarkPresent は対象社員全員を出勤として登録します。
// 各行は独立に書き込まれ、一部が失敗しても成功分は保持されます。
func (s *Service) BulkMarkPresent(ctx context.Context, in BulkMarkPresentInput) (*BulkResult, error) {
	day, err := ParseDay(in.Day)
	if err != nil {
		return nil, err
	}
	startTime, err := NormalizeTime(in.StartTime)
	if err != nil {
		return nil, err
	}

	ids, err := s.bulkTargets(ctx, in.EmployeeIDs)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Day: day}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.repo.Upsert(gctx, &Record{
				EmployeeID: id,
				Day:        day,
				Status:     StatusPresent,
				StartTime:  startTime,
				UpdatedAt:  s.clock.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BulkFailure{EmployeeID: id, Err: err})
				return nil
			}
			result.Written = append(result.Written, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Written)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID })

	if len(result.Failed) > 0 {
		failed := make([]string, 0, len(result.Failed))
		for _, f := range result.Failed {
			failed = append(failed, f.EmployeeID)
		}
		s.logger.WithFields(logrus.Fields{
			"day":        day.Format(DayLayout),
			"written":    len(result.Written),
			"failed":     len(result.Failed),
			"failed_ids": failed,
		}).Warn("bulk attendance partially failed")
	}

	return result, nil
}

// QueryRange は [from, to) の出欠を社員 ID と日付キーで引ける形で返します。
func (s *Service) QueryRange(ctx context.Context, employeeIDs []string, from, to time.Time) (Ledger, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	ids, err := normalizeEmployeeIDs(employeeIDs)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.FindRange(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}

	ledger := make(Ledger)
	for _, r := range records {
		days, ok := ledger[r.EmployeeID]
		if !ok {
			days = make(map[string]*Record)
			ledger[r.EmployeeID] = days
		}
		days[r.DayKey()] = r
	}
	return ledger, nil
}

// MonthlySheetInput は月次出欠表の入力です。
type MonthlySheetInput struct {
	Month       string
	EmployeeIDs []string
	Search      string
}

// MonthlySheet は対象社員 × 月の日数の出欠表を返します。
// 社員の指定が無い場合は退職者を除外します。
func (s *Service) MonthlySheet(ctx context.Context, in MonthlySheetInput) (*MonthlySheet, error) {
	start, end, err := MonthRange(in.Month)
	if err != nil {
		return nil, err
	}
	ids, err := normalizeEmployeeIDs(in.EmployeeIDs)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.Roster(ctx, RosterFilter{
		EmployeeIDs:      ids,
		IncludeSeparated: len(ids) > 0,
		Search:           strings.TrimSpace(in.Search),
	})
	if err != nil {
		return nil, err
	}

	sheet := &MonthlySheet{Month: start}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		sheet.Days = append(sheet.Days, d)
	}
	if len(roster) == 0 {
		return sheet, nil
	}

	ledger, err := s.QueryRange(ctx, rosterIDs(roster), start, end)
	if err != nil {
		return nil, err
	}

	for _, entry := range roster {
		row := SheetRow{Employee: entry, Cells: make([]*Record, len(sheet.Days))}
		for i, d := range sheet.Days {
			if r := ledger.Get(entry.EmployeeID, d); r != nil {
				row.Cells[i] = r
				row.Summary.add(r.Status)
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// DailyInput は日次出欠表の入力です。Day が空の場合は当日です。
type DailyInput struct {
	Day    string
	Search string
}

// Daily は一日分の出欠表を返します。退職者は含みません。
func (s *Service) Daily(ctx context.Context, in DailyInput) (*DailySheet, error) {
	var (
		day time.Time
		err error
	)
	if strings.TrimSpace(in.Day) == "" {
		day = s.Today()
	} else if day, err = ParseDay(in.Day); err != nil {
		return nil, err
	}

	roster, err := s.roster.Roster(ctx, RosterFilter{Search: strings.TrimSpace(in.Search)})
	if err != nil {
		return nil, err
	}

	sheet := &DailySheet{Day: day}
	if len(roster) == 0 {
		return sheet, nil
	}

	ledger, err := s.QueryRange(ctx, rosterIDs(roster), day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, entry := range roster {
		sheet.Rows = append(sheet.Rows, DailyRow{Employee: entry, Record: ledger.Get(entry.EmployeeID, day)})
	}
	return sheet, nil
}

// MonthlySummary は社員一人の月間の出欠集計を返します。
func (s *Service) MonthlySummary(ctx context.Context, employeeID, month string) (Summary, error) {
	id, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return Summary{}, err
	}
	start, end, err := MonthRange(month)
	if err != nil {
		return Summary{}, err
	}

	records, err := s.repo.FindRange(ctx, []string{id}, start, end)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, r := range records {
		summary.add(r.Status)
	}
	return summary, nil
}

// Today は設定されたタイムゾーンでの当日を返します。
func (s *Service) Today() time.Time {
	now := s.clock.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultStartTime は設定されたタイムゾーンでの現在時刻から既定の開始時刻を返します。
func (s *Service) DefaultStartTime() string {
	return RoundedStartTime(s.clock.Now().In(s.loc))
}

func (s *Service) buildRecord(employeeID string, day time.Time, status Status, rawStart string) (*Record, error) {
	record := &Record{EmployeeID: employeeID, Day: day, Status: status, UpdatedAt: s.clock.Now()}
	if status != StatusPresent {
		return record, nil
	}
	startTime, err := NormalizeTime(rawStart)
	if err != nil {
		return nil, err
	}
	record.StartTime = startTime
	return record, nil
}

func (s *Service) bulkTargets(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return normalizeEmployeeIDs(requested)
	}
	roster, err := s.roster.Roster(ctx, RosterFilter{})
	if err != nil {
		return nil, err
	}
	return rosterIDs(roster), nil
}

// ParseDay は YYYY-MM-DD 形式の日付を解釈します。
func ParseDay(raw string) (time.Time, error) {
	d, err := time.Parse(DayLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return d, nil
}

// MonthRange は YYYY-MM 形式の月を [月初, 翌月初) に変換します。
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}

func normalizeEmployeeIDs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		id, err := normalizeEmployeeID(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func rosterIDs(roster []RosterEntry) []string {
	ids := make([]string, 0, len(roster))
	for _, r := range roster {
		ids = append(ids, r.EmployeeID)
	}
	return ids
}
