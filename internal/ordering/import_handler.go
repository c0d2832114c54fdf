package ordering

import (
	"fmt"
	"strconv"
	"strings"

	"voko-backend/internal/database"
	"voko-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// normalizeProductName flattens a price-list product name for matching:
// lower case, collapsed whitespace. Suppliers are not consistent about
// capitals and double spaces between deliveries.
func normalizeProductName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

type ImportedProduct struct {
	Row       int    `json:"row"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	BasePrice string `json:"base_price"`
	Max       *int   `json:"maximum_total_order"`
	ProductID uint   `json:"product_id"`
	Matched   bool   `json:"matched_existing"`
}

type ImportResponse struct {
	Created []ImportedProduct `json:"created"`
	Skipped []string          `json:"skipped"`
}

// POST /api/admin/suppliers/:id/import-products?round_id=42
// Reads a supplier price list (XLSX, columns: name, unit, price, optional
// max) and creates the supplier's products for the given round. Rows whose
// name matches an earlier product reuse its category and description.
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplierID, err := c.ParamsInt("id")
		if err != nil || supplierID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier id")
		}
		roundID, err := strconv.Atoi(c.Query("round_id"))
		if err != nil || roundID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "round_id is required")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, supplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		var round models.OrderRound
		if err := database.DB.First(&round, roundID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order round not found")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Upload the price list as 'file'")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not open uploaded file")
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "The file is not a readable XLSX")
		}
		defer excelFile.Close()

		sheets := excelFile.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "The workbook has no sheets")
		}
		rows, err := excelFile.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read the first sheet")
		}

		// Earlier products of this supplier, for category/description reuse.
		var previous []models.Product
		database.DB.Where("supplier_id = ?", supplierID).Order("id desc").Find(&previous)
		byName := make(map[string]*models.Product, len(previous))
		for i := range previous {
			key := normalizeProductName(previous[i].Name)
			if _, seen := byName[key]; !seen {
				byName[key] = &previous[i]
			}
		}

		resp := ImportResponse{Created: []ImportedProduct{}, Skipped: []string{}}

		for i, row := range rows {
			if i == 0 {
				// header row
				continue
			}
			if len(row) < 3 || strings.TrimSpace(row[0]) == "" {
				resp.Skipped = append(resp.Skipped, fmt.Sprintf("row %d: too few columns", i+1))
				continue
			}

			name := strings.TrimSpace(row[0])
			unit := strings.TrimSpace(row[1])
			price, err := parseMoney(strings.TrimSpace(strings.ReplaceAll(row[2], ",", ".")))
			if err != nil || price.Sign() <= 0 {
				resp.Skipped = append(resp.Skipped, fmt.Sprintf("row %d: bad price %q", i+1, row[2]))
				continue
			}

			var max *int
			if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
				m, err := strconv.Atoi(strings.TrimSpace(row[3]))
				if err != nil || m < 0 {
					resp.Skipped = append(resp.Skipped, fmt.Sprintf("row %d: bad maximum %q", i+1, row[3]))
					continue
				}
				max = &m
			}

			rid := uint(roundID)
			product := models.Product{
				Name:              name,
				Unit:              unit,
				UnitAmount:        1,
				SupplierID:        uint(supplierID),
				OrderRoundID:      &rid,
				BasePrice:         price,
				MaximumTotalOrder: max,
				Enabled:           true,
			}

			matched := false
			if prev, ok := byName[normalizeProductName(name)]; ok {
				product.CategoryID = prev.CategoryID
				product.Description = prev.Description
				product.UnitAmount = prev.UnitAmount
				matched = true
			} else {
				product.New = true
			}

			if err := database.DB.Create(&product).Error; err != nil {
				resp.Skipped = append(resp.Skipped, fmt.Sprintf("row %d: could not save", i+1))
				continue
			}

			resp.Created = append(resp.Created, ImportedProduct{
				Row:       i + 1,
				Name:      name,
				Unit:      unit,
				BasePrice: price.StringFixed(2),
				Max:       max,
				ProductID: product.ID,
				Matched:   matched,
			})
		}

		return c.JSON(resp)
	}
}
