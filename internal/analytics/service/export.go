package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	"github.com/lumigente/lumigente-backend/internal/analytics/repository"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
)

var exportHeader = []string{
	"Nome",
	"Departamento",
	"Feedbacks Recebidos",
	"Feedbacks Enviados",
	"Reconhecimentos Recebidos",
	"Reconhecimentos Enviados",
	"Entradas de Humor",
	"Humor Médio",
}

// Export is a rendered CSV file
type Export struct {
	Filename string
	Rows     int
	Body     []byte
}

// Export renders per-user window metrics under the requester's scope as CSV.
// Exports are never cached.
func (e *Engine) Export(ctx context.Context, s hdomain.Subject, q domain.Query) (*Export, error) {
	if s.UserID <= 0 {
		return nil, errors.Unauthorized("missing user identity")
	}
	q = q.Normalize(e.limits)
	scope := e.scopes.Resolve(ctx, s, hdomain.ScopeOptions{})
	now := e.now()

	rows, err := e.store.ExportRows(ctx, hdomain.BuildScopeFilter(scope, repository.ScopeColumn), q.Department, q.Since(now))
	if err != nil {
		e.logger.Error().Err(err).Int64("user_id", s.UserID).Msg("export query failed")
		return nil, errors.Unavailable("export failed", err)
	}

	body, err := WriteCSV(rows)
	if err != nil {
		return nil, errors.Internal("export rendering failed")
	}

	e.logger.Info().
		Int64("user_id", s.UserID).
		Int("rows", len(rows)).
		Int("period_days", q.PeriodDays).
		Msg("analytics exported")

	return &Export{
		Filename: fmt.Sprintf("analytics_%dd_%s.csv", q.PeriodDays, now.Format("2006-01-02")),
		Rows:     len(rows),
		Body:     body,
	}, nil
}

// WriteCSV renders export rows with a header line. A missing mean mood is 0.00.
func WriteCSV(rows []domain.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		mood := 0.0
		if r.AverageMood != nil {
			mood = *r.AverageMood
		}
		record := []string{
			spreadsheetSafe(r.FullName),
			spreadsheetSafe(r.Department),
			strconv.FormatInt(r.FeedbacksReceived, 10),
			strconv.FormatInt(r.FeedbacksSent, 10),
			strconv.FormatInt(r.RecognitionsReceived, 10),
			strconv.FormatInt(r.RecognitionsSent, 10),
			strconv.FormatInt(r.MoodEntries, 10),
			strconv.FormatFloat(mood, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// spreadsheetSafe quotes text cells a spreadsheet would evaluate as a formula
func spreadsheetSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
