package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/pkg/errors"
)

// ExportFormat selects the rendering of an admin export.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	// FormatPDF is a printable HTML document meant for browser print-to-PDF,
	// not a byte-exact PDF.
	FormatPDF  ExportFormat = "pdf"
	FormatXLSX ExportFormat = "xlsx"
)

// exportHeaders is the French column header row shared by all formats.
var exportHeaders = []string{
	"Nom", "Type", "Description", "Adresse", "Ville", "District",
	"Téléphone", "Téléphone 2", "WhatsApp", "Email", "Site web",
	"Urgences 24h", "Accès fauteuil roulant", "Parking", "Transport en commun",
	"Services", "Spécialités", "Latitude", "Longitude",
	"Statut", "Vues", "Créé le", "Modifié le",
}

// ExportResult is a rendered export ready to be written to the response.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ListingReport summarizes the directory for the back-office dashboard.
type ListingReport struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	ByStatus    map[entities.CentreStatus]int `json:"by_status"`
	ByType      map[string]int               `json:"by_type"`
	ByCity      map[string]int               `json:"by_city"`
}

// ExportService renders the filtered listing set in the admin export formats.
type ExportService struct {
	repo repositories.CentreRepository
}

// NewExportService creates a new export service
func NewExportService(repo repositories.CentreRepository) *ExportService {
	return &ExportService{repo: repo}
}

// Export fetches the full filtered set and renders it in the given format.
func (s *ExportService) Export(ctx context.Context, filter repositories.CentreFilter, format ExportFormat) (*ExportResult, error) {
	filter.NoPagination = true
	filter.Limit = 0
	filter.Offset = 0

	centres, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().Format("2006-01-02")
	switch format {
	case FormatCSV:
		data, err := renderCSV(centres)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/csv; charset=utf-8",
			Filename:    fmt.Sprintf("centres-%s.csv", stamp),
		}, nil
	case FormatPDF:
		data, err := renderPrintableHTML(centres)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/html; charset=utf-8",
			Filename:    fmt.Sprintf("centres-%s.html", stamp),
		}, nil
	case FormatXLSX:
		data, err := renderXLSX(centres)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    fmt.Sprintf("centres-%s.xlsx", stamp),
		}, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
}

// Report builds the listing-count summary by status, type and city.
func (s *ExportService) Report(ctx context.Context) (*ListingReport, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	byCity, err := s.repo.CountByCity(ctx)
	if err != nil {
		return nil, err
	}

	return &ListingReport{
		GeneratedAt: time.Now().UTC(),
		ByStatus:    byStatus,
		ByType:      byType,
		ByCity:      byCity,
	}, nil
}

// ReportCSV renders the summary report as CSV with the usual BOM.
func (s *ExportService) ReportCSV(report *ListingReport) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Catégorie", "Valeur", "Nombre"}); err != nil {
		return nil, err
	}
	for status, n := range report.ByStatus {
		if err := w.Write([]string{"Statut", string(status), strconv.Itoa(n)}); err != nil {
			return nil, err
		}
	}
	for typ, n := range report.ByType {
		if err := w.Write([]string{"Type", typ, strconv.Itoa(n)}); err != nil {
			return nil, err
		}
	}
	for city, n := range report.ByCity {
		if err := w.Write([]string{"Ville", city, strconv.Itoa(n)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderCSV writes the centre rows as UTF-8 CSV with a BOM so spreadsheet
// applications pick up the accents.
func renderCSV(centres []*entities.Centre) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, c := range centres {
		if err := w.Write(exportRow(c)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(centres []*entities.Centre) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Centres"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, c := range centres {
		row := exportRow(c)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var printableTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Annuaire Irôy - export</title>
<style>
body { font-family: Arial, sans-serif; font-size: 11px; margin: 24px; }
h1 { font-size: 16px; }
p.meta { color: #555; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; vertical-align: top; }
th { background: #eee; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Annuaire Irôy - centres</h1>
<p class="meta">Généré le {{.GeneratedAt}} - {{.Count}} centre(s)</p>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

func renderPrintableHTML(centres []*entities.Centre) ([]byte, error) {
	rows := make([][]string, 0, len(centres))
	for _, c := range centres {
		rows = append(rows, exportRow(c))
	}

	var buf bytes.Buffer
	err := printableTemplate.Execute(&buf, map[string]interface{}{
		"GeneratedAt": time.Now().Format("02/01/2006 15:04"),
		"Count":       len(centres),
		"Headers":     exportHeaders,
		"Rows":        rows,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(c *entities.Centre) []string {
	lat, lng := "", ""
	if c.Location != nil {
		lat = strconv.FormatFloat(c.Location.Latitude, 'f', 6, 64)
		lng = strconv.FormatFloat(c.Location.Longitude, 'f', 6, 64)
	}

	return []string{
		c.Name,
		c.CentreType,
		c.Description,
		c.Address,
		c.City,
		c.District,
		c.Phone,
		c.Phone2,
		c.WhatsApp,
		c.Email,
		c.Website,
		ouiNon(c.Emergency24h),
		ouiNon(c.WheelchairAccessible),
		ouiNon(c.Parking),
		ouiNon(c.PublicTransport),
		strings.Join(c.Services, "; "),
		strings.Join(c.Specialties, "; "),
		lat,
		lng,
		string(c.Status),
		strconv.Itoa(c.ViewCount),
		c.CreatedAt.Format("02/01/2006"),
		c.UpdatedAt.Format("02/01/2006"),
	}
}

func ouiNon(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}
