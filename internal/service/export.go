package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"tradeledger/internal/clients"
	"tradeledger/internal/domain"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type ExportStatus struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id"`
	Progress  float64   `json:"progress"`
	FileURL   *string   `json:"file_url"`
	Error     *string   `json:"error"`
	Created   time.Time `json:"created_at"`
}

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

// ReportProvider is the slice of SessionService the exporter needs.
type ReportProvider interface {
	Report(ctx context.Context, sessionID string) (*SessionReport, error)
}

// ExportService builds XLSX session reports in the background. Status lives
// in redis keyed by export id; progress and completion are pushed to the
// requesting user over the websocket hub. Files land in local storage, or
// in S3 with a presigned URL when an S3 client is configured.
type ExportService struct {
	reports ReportProvider
	redis   *clients.RedisClient
	storage *clients.StorageClient
	s3      *clients.S3Client
	ws      *clients.WebSocketClient
}

func NewExportService(
	reports ReportProvider,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
) *ExportService {
	return &ExportService{
		reports: reports,
		redis:   redis,
		storage: storage,
		s3:      s3,
		ws:      ws,
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		log.Printf("export %s: save status: %v", st.Key, err)
		return
	}
	_ = s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartSessionReportExport kicks off an export and returns its id
// immediately. The caller polls GetExport or listens on the websocket for
// completion.
func (s *ExportService) StartSessionReportExport(ctx context.Context, sessionID string, userID int64) (string, error) {
	if s.redis == nil {
		return "", errors.New("redis client not configured")
	}

	// fail fast on a bad session id before going async
	if _, err := s.reports.Report(ctx, sessionID); err != nil {
		return "", err
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	status := &ExportStatus{
		Key:       exportID,
		Type:      "session_report",
		UserID:    userID,
		SessionID: sessionID,
		Created:   time.Now(),
	}
	s.saveStatus(ctx, status)

	go s.runSessionReportExport(context.Background(), status)

	return exportID, nil
}

func (s *ExportService) runSessionReportExport(ctx context.Context, status *ExportStatus) {
	fail := func(err error) {
		errStr := err.Error()
		log.Printf("export %s: %s", status.Key, errStr)
		status.Error = &errStr
		status.Progress = 100
		s.saveStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyExportFailed(ctx, status.UserID, status.Key, errStr)
		}
	}

	report, err := s.reports.Report(ctx, status.SessionID)
	if err != nil {
		fail(err)
		return
	}

	status.Progress = 50
	s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, 50, "generating")
	}

	data, err := buildSessionReportXLSX(report)
	if err != nil {
		fail(err)
		return
	}

	status.Progress = 95
	s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, 95, "uploading")
	}

	fileName := fmt.Sprintf("session_report_%s_%s.xlsx", report.Session.CashRegisterID, time.Now().Format("20060102_150405"))

	var url string
	switch {
	case s.s3 != nil:
		key, err := s.s3.UploadXLSX(ctx, fileName, data)
		if err != nil {
			fail(fmt.Errorf("upload export: %w", err))
			return
		}
		url, err = s.s3.GetTemporaryURL(ctx, key, exportTTL)
		if err != nil {
			fail(fmt.Errorf("presign export: %w", err))
			return
		}
	case s.storage != nil:
		saved, err := s.storage.Save(ctx, fileName, data)
		if err != nil {
			fail(fmt.Errorf("save export: %w", err))
			return
		}
		url = s.storage.GetURL(saved)
	default:
		fail(errors.New("no export storage configured"))
		return
	}

	status.FileURL = &url
	status.Progress = 100
	s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, status.UserID, status.Key, url, fileName)
	}
}

func buildSessionReportXLSX(report *SessionReport) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Session report"
	f.SetSheetName(f.GetSheetName(0), sheet)

	row := 1
	set := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	pair := func(label string, v any) {
		set(1, label)
		set(2, v)
		row++
	}

	sess := report.Session
	pair("Cash register", sess.CashRegisterID)
	pair("Status", string(sess.Status))
	pair("Opened at", sess.OpenedAt.Format("2006-01-02 15:04:05"))
	if sess.ClosedAt != nil {
		pair("Closed at", sess.ClosedAt.Format("2006-01-02 15:04:05"))
	}
	pair("Opening balance", sess.Opening.Float64())
	pair("Expected balance", report.Expected.Float64())
	if sess.Status == domain.SessionClosed {
		pair("Counted balance", sess.Closing.Float64())
		pair("Difference", sess.Difference.Float64())
	}
	row++

	set(1, "Sales by method")
	row++
	methods := make([]string, 0, len(report.SalesByMethod))
	for m := range report.SalesByMethod {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)
	for _, m := range methods {
		pair(m, report.SalesByMethod[domain.PaymentMethod(m)].Float64())
	}
	row++

	set(1, "Movements")
	row++
	set(1, "Type")
	set(2, "Amount")
	set(3, "Reason")
	set(4, "Recorded at")
	row++
	for _, m := range report.Movements {
		set(1, string(m.Type))
		set(2, m.Amount.Float64())
		set(3, m.Reason)
		set(4, m.CreatedAt.Format("2006-01-02 15:04:05"))
		row++
	}
	row++

	set(1, "Refunds")
	row++
	set(1, "Method")
	set(2, "Amount")
	set(3, "Reason")
	row++
	for _, r := range report.Refunds {
		set(1, string(r.Method))
		set(2, r.Amount.Float64())
		set(3, r.Reason)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetExports lists the calling user's exports, newest first.
func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("list export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var st ExportStatus
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			continue
		}
		if st.UserID == userID {
			statuses = append(statuses, st)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (*ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, domain.NotFoundf("export %s not found", exportID)
	}

	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("parse export status: %w", err)
	}
	if st.UserID != userID {
		return nil, domain.NotFoundf("export %s not found", exportID)
	}
	return &st, nil
}
