package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tealeg/xlsx"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/repositories"
)

// XLSXContentType is the MIME type of rendered order exports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const orderExportSheet = "Orders"

var orderExportHeaders = []string{
	"Order Number", "Created At", "Status", "Payment Status", "Payment Method", "Shipping Method",
	"Customer Name", "Customer Email", "Items", "Subtotal", "Tax", "Shipping", "Discount", "Total",
	"Currency", "Tracking Number", "Carrier",
}

// OrderExportServiceDeps bundles collaborators for spreadsheet exports.
type OrderExportServiceDeps struct {
	Orders      repositories.OrderRepository
	Uploader    ExportUploader
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderExportService struct {
	orders   repositories.OrderRepository
	uploader ExportUploader
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewOrderExportService constructs the export service. The uploader is optional; without it only
// download exports are available.
func NewOrderExportService(deps OrderExportServiceDeps) (OrderExportService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order export service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderExportService{
		orders:   deps.Orders,
		uploader: deps.Uploader,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

func (s *orderExportService) Export(ctx context.Context, cmd OrderExportCommand) (OrderExportResult, error) {
	if err := authorize(cmd.Actor, auth.CapOrdersExport); err != nil {
		return OrderExportResult{}, err
	}
	destination := cmd.Destination
	if destination == "" {
		destination = ExportDestinationDownload
	}
	switch destination {
	case ExportDestinationDownload:
	case ExportDestinationStorage:
		if s.uploader == nil {
			return OrderExportResult{}, invalidField("destination", "storage exports are not configured")
		}
	default:
		return OrderExportResult{}, invalidField("destination", fmt.Sprintf("unsupported destination %q", cmd.Destination))
	}
	sortBy, sortOrder, err := normalizeSort(cmd.SortBy, cmd.SortOrder)
	if err != nil {
		return OrderExportResult{}, err
	}

	orders, err := listFiltered(ctx, s.orders, cmd.Filter)
	if err != nil {
		return OrderExportResult{}, err
	}
	SortOrders(orders, sortBy, sortOrder)

	var buf bytes.Buffer
	if err := writeOrderWorkbook(&buf, orders); err != nil {
		return OrderExportResult{}, fmt.Errorf("order export: render workbook: %w", err)
	}

	now := s.clock()
	fileName := fmt.Sprintf("orders-%s.xlsx", now.Format("20060102-150405"))
	result := OrderExportResult{
		FileName:    fileName,
		ContentType: XLSXContentType,
		Rows:        len(orders),
	}

	if destination == ExportDestinationDownload {
		result.Content = buf.Bytes()
	} else {
		objectName := fmt.Sprintf("%s/%s-%s", now.Format("2006/01/02"), strings.ToLower(s.newID()), fileName)
		location, err := s.uploader.UploadExport(ctx, objectName, XLSXContentType, &buf)
		if err != nil {
			return OrderExportResult{}, fmt.Errorf("order export: upload: %w", err)
		}
		result.Location = location
	}

	s.logger(ctx, "order.export.completed", map[string]any{
		"rows":        result.Rows,
		"destination": string(destination),
		"actor":       cmd.Actor.ID,
	})
	return result, nil
}

func writeOrderWorkbook(buf *bytes.Buffer, orders []Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(orderExportSheet)
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, order := range orders {
		row := sheet.AddRow()
		quantity := 0
		for _, item := range order.Items {
			quantity += item.Quantity
		}
		for _, value := range []any{
			order.OrderNumber,
			order.CreatedAt.UTC().Format(time.RFC3339),
			string(order.Status),
			string(order.PaymentStatus),
			string(order.PaymentMethod),
			string(order.ShippingMethod),
			order.Customer.Name,
			order.Customer.Email,
			quantity,
			order.Totals.Subtotal,
			order.Totals.Tax,
			order.Totals.Shipping,
			order.Totals.Discount,
			order.Totals.Total,
			order.Currency,
			order.TrackingNumber,
			order.Carrier,
		} {
			row.AddCell().SetValue(value)
		}
	}

	return file.Write(buf)
}
