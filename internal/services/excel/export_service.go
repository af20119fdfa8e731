package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
)

// ErrMediaBuyNotFound is returned for unknown buys and buys of other principals
var ErrMediaBuyNotFound = errors.New("media buy not found")

const (
	packagesSheet    = "Packages"
	assignmentsSheet = "Assignments"
)

// Service exports media buys with their creative assignments to XLSX
type Service struct {
	store      repository.Store
	exportsDir string
}

// NewExcelService creates a new Excel service instance
func NewExcelService(store repository.Store, exportsDir string) *Service {
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(exportsDir, 0755); err != nil {
			logrus.WithError(err).WithField("dir", exportsDir).Warn("Failed to create exports directory")
		}
	}
	return &Service{store: store, exportsDir: exportsDir}
}

// ExportsDir is where exported files are written
func (s *Service) ExportsDir() string {
	return s.exportsDir
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Filename    string
	Packages    int
	Assignments int
}

// ExportMediaBuy writes one workbook with a Packages sheet and an
// Assignments sheet for a media buy owned by the caller
func (s *Service) ExportMediaBuy(ctx context.Context, identity *models.Identity, mediaBuyID string) (*ExportResult, error) {
	buy, err := s.store.MediaBuys().GetByID(ctx, identity.TenantID, mediaBuyID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && buy.PrincipalID != identity.PrincipalID) {
		return nil, fmt.Errorf("%w: %s", ErrMediaBuyNotFound, mediaBuyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media buy: %w", err)
	}

	packages, err := s.store.MediaBuys().ListPackages(ctx, buy.MediaBuyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	assignments, err := s.store.Assignments().ListByMediaBuy(ctx, identity.TenantID, buy.MediaBuyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	creatives, err := s.loadCreatives(ctx, identity, assignments)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), packagesSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(assignmentsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(0)

	perPackage := map[string]int{}
	for _, a := range assignments {
		perPackage[a.PackageID]++
	}

	packageRows := make([][]interface{}, 0, len(packages))
	for _, p := range packages {
		budget, _ := p.Budget()
		paused, _ := p.PackageConfig["paused"].(bool)
		packageRows = append(packageRows, []interface{}{
			p.PackageID, p.ProductID(), p.LineItemID(), budget, buy.Currency, paused, perPackage[p.PackageID],
		})
	}
	if err := writeSheet(f, packagesSheet,
		[]string{"package_id", "product_id", "line_item_id", "budget", "currency", "paused", "creative_count"},
		packageRows, nil); err != nil {
		return nil, err
	}

	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].PackageID != assignments[j].PackageID {
			return assignments[i].PackageID < assignments[j].PackageID
		}
		return assignments[i].CreativeID < assignments[j].CreativeID
	})
	statusStyles := newStatusStyles(f)
	assignmentRows := make([][]interface{}, 0, len(assignments))
	rowStyles := make([]int, 0, len(assignments))
	for _, a := range assignments {
		name, format, status := "", "", ""
		if c, ok := creatives[a.CreativeID]; ok {
			name, format, status = c.Name, c.FormatID().String(), c.Status
		}
		assignmentRows = append(assignmentRows, []interface{}{
			a.PackageID, a.CreativeID, name, format, status, a.Weight, strings.Join(a.PlacementIDs, ", "),
		})
		rowStyles = append(rowStyles, statusStyles[status])
	}
	if err := writeSheet(f, assignmentsSheet,
		[]string{"package_id", "creative_id", "creative_name", "format", "status", "weight", "placement_ids"},
		assignmentRows, rowStyles); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("media_buy_%s_%d.xlsx", buy.MediaBuyID, time.Now().Unix())
	if err := f.SaveAs(filepath.Join(s.exportsDir, filename)); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"media_buy_id": buy.MediaBuyID,
		"filename":     filename,
	}).Info("Exported media buy")
	return &ExportResult{Filename: filename, Packages: len(packages), Assignments: len(assignments)}, nil
}

func (s *Service) loadCreatives(ctx context.Context, identity *models.Identity, assignments []*models.CreativeAssignment) (map[string]*models.Creative, error) {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.CreativeID)
	}
	out := make(map[string]*models.Creative, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.store.Creatives().ListByCreativeIDs(ctx, identity.TenantID, identity.PrincipalID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load creatives: %w", err)
	}
	for _, c := range found {
		out[c.CreativeID] = c
	}
	return out, nil
}

// newStatusStyles returns row fills keyed by creative status
func newStatusStyles(f *excelize.File) map[string]int {
	fills := map[string]string{
		models.CreativeStatusApproved:      "C6EFCE", // Green
		models.CreativeStatusPendingReview: "FFEB9C", // Yellow
		models.CreativeStatusRejected:      "D9D9D9", // Gray
	}
	styles := make(map[string]int, len(fills))
	for status, color := range fills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = id
		}
	}
	return styles
}

// writeSheet writes a bold header row followed by rows. A non-zero entry of
// rowStyles styles the matching data row.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, rowStyles []int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 20)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err == nil {
		f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
		if r < len(rowStyles) && rowStyles[r] != 0 {
			f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, r+2), rowStyles[r])
		}
	}
	return nil
}
