package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// 컬럼 순서: 상품명, 카테고리, 브랜드, 가격, 재고, 설명, 이미지 URL
const (
	colName = iota
	colCategory
	colBrand
	colPrice
	colStock
	colDescription
	colImageURL
)

type productRow struct {
	Name        string
	Category    string
	Brand       string
	Price       decimal.Decimal
	Stock       int
	Description string
	ImageURL    string
}

func main() {
	yes := flag.Bool("y", false, "skip the confirmation prompt")
	flag.Parse()

	// 명령줄 인자 확인
	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-y] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, skipped, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total products to import: %d (skipped rows: %d)\n", len(rows), skipped)

	// 사용자 확인
	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	provider := capability.NewProvider(db.GetDB())
	imported, err := importProducts(context.Background(), provider.Elevated(), repository.NewProductRepository(), rows)
	if err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}

func readProductsFromXLSX(filePath string) ([]productRow, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	// 첫 번째 시트 이름 가져오기
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var products []productRow
	skipped := 0

	// 첫 행은 헤더이므로 스킵
	for _, row := range rows[1:] {
		p, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		products = append(products, p)
	}
	return products, skipped, nil
}

// parseRow rejects rows without a name or with an unparsable or negative price.
func parseRow(row []string) (productRow, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(colName)
	if name == "" {
		return productRow{}, false
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(cell(colPrice), ",", ""))
	if err != nil || price.IsNegative() {
		return productRow{}, false
	}
	stock := 0
	if s := cell(colStock); s != "" {
		stock, err = strconv.Atoi(s)
		if err != nil || stock < 0 {
			return productRow{}, false
		}
	}

	return productRow{
		Name:        name,
		Category:    cell(colCategory),
		Brand:       cell(colBrand),
		Price:       price,
		Stock:       stock,
		Description: cell(colDescription),
		ImageURL:    cell(colImageURL),
	}, true
}

func importProducts(ctx context.Context, admin *capability.Elevated, repo repository.ProductRepository, rows []productRow) (int, error) {
	categories := make(map[string]*uint)
	brands := make(map[string]*uint)

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		categoryID, err := lookup(categories, row.Category, func(name string) (uint, error) {
			c, err := repo.FindOrCreateCategory(ctx, admin, name, util.Slugify(name))
			if err != nil {
				return 0, err
			}
			return c.ID, nil
		})
		if err != nil {
			return 0, fmt.Errorf("category %q: %w", row.Category, err)
		}
		brandID, err := lookup(brands, row.Brand, func(name string) (uint, error) {
			b, err := repo.FindOrCreateBrand(ctx, admin, name, util.Slugify(name))
			if err != nil {
				return 0, err
			}
			return b.ID, nil
		})
		if err != nil {
			return 0, fmt.Errorf("brand %q: %w", row.Brand, err)
		}

		products = append(products, model.Product{
			Name:          row.Name,
			Slug:          util.UniqueSlug(row.Name),
			Description:   row.Description,
			Price:         row.Price,
			StockQuantity: row.Stock,
			ImageURL:      row.ImageURL,
			CategoryID:    categoryID,
			BrandID:       brandID,
		})
	}

	if len(products) == 0 {
		return 0, nil
	}
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := repo.BulkCreate(ctx, admin, products, batchSize); err != nil {
		return 0, err
	}
	return len(products), nil
}

// lookup memoizes find-or-create by name; an empty name means no reference.
func lookup(cache map[string]*uint, name string, create func(string) (uint, error)) (*uint, error) {
	if name == "" {
		return nil, nil
	}
	if id, ok := cache[name]; ok {
		return id, nil
	}
	id, err := create(name)
	if err != nil {
		return nil, err
	}
	cache[name] = &id
	return &id, nil
}
