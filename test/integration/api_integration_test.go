package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"retail-pos/internal/auth"
	"retail-pos/internal/config"
	"retail-pos/internal/handler"
	"retail-pos/internal/imagestore"
	"retail-pos/internal/metrics"
	"retail-pos/internal/model"
	"retail-pos/internal/report"
	"retail-pos/internal/repository"
	"retail-pos/internal/router"
	"retail-pos/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testUploadLimit = 64 * 1024

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testServer struct {
	handler   http.Handler
	tokens    *auth.TokenManager
	uploadDir string
}

func setupTestServer(t *testing.T, testDB *TestDB, protectAPI bool) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	uploadDir := t.TempDir()

	tokens, err := auth.NewTokenManager(config.AuthConfig{
		JWTSecret:  "integration-secret",
		Issuer:     "retail-pos",
		Expiration: time.Hour,
	})
	require.NoError(t, err)

	images := imagestore.NewFallbackStore(nil, imagestore.NewFileStore(uploadDir, logger), logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	saleRepo := repository.NewSaleRepository(testDB.Pool, logger)
	userRepo := repository.NewUserRepository(testDB.Pool, logger)

	// Initialize services
	processor := service.NewOrderProcessor(productRepo, saleRepo, service.NewIDGenerator(service.OrderIDPrefix), logger)
	productService := service.NewProductService(productRepo, images, service.NewIDGenerator(service.ProductIDPrefix), logger)
	orderService := service.NewOrderService(saleRepo, processor, metrics.NewOrderMetrics(prometheus.NewRegistry()), logger)

	h := router.New(
		router.Handlers{
			Product:   handler.NewProductHandler(productService, testUploadLimit, logger),
			Order:     handler.NewOrderHandler(orderService, logger),
			Dashboard: handler.NewDashboardHandler(service.NewDashboardService(productRepo, saleRepo, logger), logger),
			Auth:      handler.NewAuthHandler(service.NewAuthService(userRepo, tokens, logger), logger),
			Report:    handler.NewReportHandler(service.NewReportService(saleRepo, logger), logger),
		},
		router.Options{
			Tokens:     tokens,
			ProtectAPI: protectAPI,
			UploadDir:  uploadDir,
			Database:   testDB.Pool,
		},
		logger,
	)

	return &testServer{handler: h, tokens: tokens, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(t *testing.T, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return s.do(t, http.MethodPost, path, bytes.NewReader(body), headers)
}

func orderPayload(items ...model.OrderItemRequest) model.OrderRequest {
	return model.OrderRequest{Items: items}
}

func line(productID string, qty int) model.OrderItemRequest {
	return model.OrderItemRequest{ProductID: productID, Quantity: qty}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB, false)
	CleanupDB(t, testDB.Pool)

	register := map[string]string{"name": "Kasir Satu", "email": "kasir@toko.com", "password": "123456"}

	t.Run("Register creates a staff account", func(t *testing.T) {
		w := server.postJSON(t, "/api/auth/register", register, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "kasir@toko.com")
	})

	t.Run("Registering the same email again conflicts", func(t *testing.T) {
		dup := map[string]string{"name": "Kasir Dua", "email": "KASIR@toko.com", "password": "abcdef"}
		w := server.postJSON(t, "/api/auth/register", dup, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, model.ErrCodeDuplicate, decodeError(t, w).Error)
	})

	t.Run("Wrong password and unknown email look the same", func(t *testing.T) {
		wrongPass := server.postJSON(t, "/api/auth/login", map[string]string{"email": "kasir@toko.com", "password": "nope-nope"}, nil)
		unknown := server.postJSON(t, "/api/auth/login", map[string]string{"email": "ghost@toko.com", "password": "123456"}, nil)

		assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, decodeError(t, wrongPass).Message, decodeError(t, unknown).Message)
	})

	t.Run("Login token opens the profile", func(t *testing.T) {
		w := server.postJSON(t, "/api/auth/login", map[string]string{"email": "kasir@toko.com", "password": "123456"}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var login struct {
			Success bool              `json:"success"`
			Token   string            `json:"token"`
			User    model.UserSummary `json:"user"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
		assert.True(t, login.Success)
		assert.Equal(t, model.RoleStaff, login.User.Role)
		require.NotEmpty(t, login.Token)

		claims, err := server.tokens.Parse(login.Token)
		require.NoError(t, err)
		assert.Equal(t, login.User.ID, claims.UserID)

		profile := server.do(t, http.MethodGet, "/api/auth/profile", nil, map[string]string{"Authorization": "Bearer " + login.Token})
		require.Equal(t, http.StatusOK, profile.Code)
		assert.Contains(t, profile.Body.String(), "kasir@toko.com")
		assert.NotContains(t, profile.Body.String(), "password")
	})

	t.Run("Profile without token is rejected", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/auth/profile", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func productForm(t *testing.T, fields map[string]string, image []byte) (io.Reader, map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, map[string]string{"Content-Type": mw.FormDataContentType()}
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB, false)

	t.Run("List paginates and searches", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := server.do(t, http.MethodGet, "/api/products?page=2&limit=3", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Success    bool            `json:"success"`
			Page       int             `json:"page"`
			TotalPages int             `json:"totalPages"`
			TotalItems int             `json:"totalItems"`
			Data       []model.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.True(t, page.Success)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 4, page.TotalItems)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Teh Melati", page.Data[0].Name)

		w = server.do(t, http.MethodGet, "/api/products?search=kopi", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Data, 1)
		assert.Equal(t, "PROD-1", page.Data[0].ID)
	})

	t.Run("Create with image, replace it, then delete", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		body, headers := productForm(t, map[string]string{
			"name":     "Es Teh Jumbo",
			"category": "Minuman",
			"price":    "7000",
			"stock":    "30",
		}, pngImage)
		w := server.do(t, http.MethodPost, "/api/products", body, headers)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created struct {
			Data model.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		product := created.Data
		assert.True(t, strings.HasPrefix(product.ID, "PROD-"))
		assert.Equal(t, model.DefaultSubCategory, product.SubCategory)
		require.True(t, strings.HasPrefix(product.Image, imagestore.URLPrefix))

		// The stored image is served back from /uploads.
		img := server.do(t, http.MethodGet, product.Image, nil, nil)
		require.Equal(t, http.StatusOK, img.Code)
		assert.Equal(t, pngImage, img.Body.Bytes())

		oldFile := filepath.Join(server.uploadDir, strings.TrimPrefix(product.Image, imagestore.URLPrefix))

		body, headers = productForm(t, map[string]string{
			"name":        "Es Teh Jumbo",
			"category":    "Minuman",
			"subCategory": "Teh",
			"price":       "7500",
			"stock":       "25",
		}, pngImage)
		w = server.do(t, http.MethodPut, "/api/products/"+product.ID, body, headers)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated struct {
			Data model.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "7500", updated.Data.Price.String())
		assert.Equal(t, 25, updated.Data.Stock)
		assert.NotEqual(t, product.Image, updated.Data.Image)
		assert.NoFileExists(t, oldFile)

		w = server.do(t, http.MethodDelete, "/api/products/"+product.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NoFileExists(t, filepath.Join(server.uploadDir, strings.TrimPrefix(updated.Data.Image, imagestore.URLPrefix)))

		w = server.do(t, http.MethodGet, "/api/products/"+product.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Non image upload is rejected and nothing is stored", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		body, headers := productForm(t, map[string]string{
			"name":     "Dokumen",
			"category": "Lainnya",
			"price":    "1000",
			"stock":    "1",
		}, []byte("%PDF-1.4 this is not a picture"))
		w := server.do(t, http.MethodPost, "/api/products", body, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		entries, err := os.ReadDir(server.uploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Update of a missing product is 404", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		body, headers := productForm(t, map[string]string{
			"name": "X", "category": "Y", "price": "1", "stock": "1",
		}, nil)
		w := server.do(t, http.MethodPut, "/api/products/PROD-404", body, headers)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB, false)

	t.Run("Order within stock succeeds and a second one beyond it fails", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := server.postJSON(t, "/api/orders", orderPayload(line("PROD-1", 3)), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp model.OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, strings.HasPrefix(resp.OrderID, "TRX-"))
		assert.Equal(t, 2, StockOf(t, testDB.Pool, "PROD-1"))

		// The order can be read back from the ledger.
		w = server.do(t, http.MethodGet, "/api/orders/"+resp.OrderID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var order struct {
			Data model.OrderResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		require.Len(t, order.Data.Records, 1)
		rec := order.Data.Records[0]
		assert.Equal(t, 3, rec.Quantity)
		assert.Equal(t, "54000", rec.Sales.String())
		assert.Equal(t, "10800", rec.Profit.String())
		assert.Equal(t, model.WalkInCustomerID, rec.CustomerID)

		w = server.postJSON(t, "/api/orders", orderPayload(line("PROD-1", 3)), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeInsufficientStock, decodeError(t, w).Error)
		assert.Equal(t, 2, StockOf(t, testDB.Pool, "PROD-1"))
		assert.Equal(t, 1, CountSales(t, testDB.Pool))
	})

	t.Run("Mixed cart rolls back every line", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := server.postJSON(t, "/api/orders", orderPayload(
			line("PROD-2", 2),
			line("PROD-3", 1),
			line("PROD-4", 9),
		), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 40, StockOf(t, testDB.Pool, "PROD-2"))
		assert.Equal(t, 25, StockOf(t, testDB.Pool, "PROD-3"))
		assert.Equal(t, 8, StockOf(t, testDB.Pool, "PROD-4"))
		assert.Zero(t, CountSales(t, testDB.Pool))
	})

	t.Run("Unknown product rolls back and is a bad request", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := server.postJSON(t, "/api/orders", orderPayload(line("PROD-2", 1), line("PROD-404", 1)), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeNotFound, decodeError(t, w).Error)
		assert.Equal(t, 40, StockOf(t, testDB.Pool, "PROD-2"))
		assert.Zero(t, CountSales(t, testDB.Pool))
	})

	t.Run("Empty cart is rejected", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := server.postJSON(t, "/api/orders", orderPayload(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeValidation, decodeError(t, w).Error)
	})

	t.Run("Concurrent orders for the whole stock", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProduct(t, testDB.Pool, "PROD-9", "Nasi Goreng", "Makanan", "20000", 4)

		const buyers = 2
		codes := make([]int, buyers)
		var wg sync.WaitGroup
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				body, _ := json.Marshal(orderPayload(line("PROD-9", 4)))
				req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				w := httptest.NewRecorder()
				server.handler.ServeHTTP(w, req)
				codes[i] = w.Code
			}(i)
		}
		wg.Wait()

		assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusBadRequest}, codes)
		assert.Zero(t, StockOf(t, testDB.Pool, "PROD-9"))
		assert.Equal(t, 1, CountSales(t, testDB.Pool))
	})

	t.Run("Dashboard and report reflect committed orders", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		promo := model.OrderItemRequest{ProductID: "PROD-2", Quantity: 2, Category: "Promo"}
		for _, payload := range []model.OrderRequest{
			orderPayload(line("PROD-1", 1), line("PROD-3", 2)),
			orderPayload(promo),
		} {
			w := server.postJSON(t, "/api/orders", payload, nil)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := server.do(t, http.MethodGet, "/api/dashboard", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var dash struct {
			Data struct {
				KPI struct {
					TotalSales  float64 `json:"total_sales"`
					TotalProfit float64 `json:"total_profit"`
					TotalOrders int     `json:"total_orders"`
				} `json:"kpi"`
				LowStockCount    int                `json:"low_stock_count"`
				PieChartCategory map[string]float64 `json:"pie_chart_category"`
				LineChartTrend   map[string]float64 `json:"line_chart_trend"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))

		// 18000 + 2*15000 + 2*8000
		assert.Equal(t, 64000.0, dash.Data.KPI.TotalSales)
		assert.Equal(t, 12800.0, dash.Data.KPI.TotalProfit)
		assert.Equal(t, 2, dash.Data.KPI.TotalOrders)
		// PROD-1 now 4 and PROD-4 8 are below the threshold.
		assert.Equal(t, 2, dash.Data.LowStockCount)
		assert.Equal(t, map[string]float64{"Minuman": 18000, "Makanan": 30000, "Promo": 16000}, dash.Data.PieChartCategory)
		month := time.Now().UTC().Format("2006-01")
		assert.Equal(t, map[string]float64{month: 64000}, dash.Data.LineChartTrend)

		w = server.do(t, http.MethodGet, "/api/reports/monthly", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(report.SheetName)
		require.NoError(t, err)
		require.Len(t, rows, 4, fmt.Sprintf("rows: %v", rows))
		assert.Equal(t, []string{"Order ID", "Date", "Category", "Sales", "Profit"}, rows[0])
		// Newest first: the single-line promo order leads.
		assert.Equal(t, "Promo", rows[1][2])
	})
}

func TestProtectedAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB, true)
	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)

	t.Run("Business routes need a token", func(t *testing.T) {
		for _, path := range []string{"/api/products", "/api/dashboard", "/api/reports/monthly"} {
			w := server.do(t, http.MethodGet, path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		}

		w := server.postJSON(t, "/api/orders", orderPayload(line("PROD-1", 1)), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 5, StockOf(t, testDB.Pool, "PROD-1"))
	})

	t.Run("Registered staff can order", func(t *testing.T) {
		w := server.postJSON(t, "/api/auth/register", map[string]string{
			"name": "Kasir", "email": "kasir@toko.com", "password": "123456",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = server.postJSON(t, "/api/auth/login", map[string]string{"email": "kasir@toko.com", "password": "123456"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var login struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

		w = server.postJSON(t, "/api/orders", orderPayload(line("PROD-1", 1)), map[string]string{"Authorization": "Bearer " + login.Token})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, 4, StockOf(t, testDB.Pool, "PROD-1"))
	})

	t.Run("Health and preflight stay open", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = server.do(t, http.MethodOptions, "/api/products", nil, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
