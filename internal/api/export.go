package api

import (
	"fmt"
	"net/http"

	"cryptometrics/internal/market"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const logSheet = "crypto_metrics"

// maxExportRows is the sheet row limit minus the header row.
var maxExportRows = excelize.TotalRows - 1

var logHeader = []any{
	"timestamp", "coin_id", "symbol", "name",
	"current_price", "market_cap", "total_volume", "price_change_24h",
}

// BuildWorkbook lays the raw log out as one sheet, one row per observation.
// rows is newest first; rows past the sheet limit are left out.
func BuildWorkbook(rows []market.Observation) (_ *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}

	if err := f.SetSheetName("Sheet1", logSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(logSheet, "A1", &logHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, o := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			market.FormatTime(o.ObservedAt), o.CoinID, o.Symbol, o.Name,
			o.Price, o.MarketCap, o.TotalVolume, o.PriceChange24h,
		}
		if err := f.SetSheetRow(logSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return f, nil
}

func (s *Server) writeWorkbook(w http.ResponseWriter, rows []market.Observation) {
	f, err := BuildWorkbook(rows)
	if err != nil {
		s.logger.Warn("build workbook failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="crypto_metrics.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		s.logger.Warn("write workbook failed", zap.Error(err))
	}
}
