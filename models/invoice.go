package models

import (
	"context"
	"strings"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/metrics"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgInvoiceNotFound  = "Invoice not found."
	msgDuplicateInvoice = "Invoice number already exists."
)

type Invoice struct {
	ID              string `json:"id,omitempty"`
	InvoiceNumber   string `json:"invoiceNumber"`
	Date            string `json:"date"`
	SupplyDate      string `json:"supplyDate"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerAddress string `json:"customerAddress"`
	CustomerGSTIN   string `json:"customerGSTIN"`
	State           string `json:"state"`
	StateCode       string `json:"stateCode"`
	TransportMode   string `json:"transportMode"`
	VehicleNumber   string `json:"vehicleNumber"`
	PlaceOfSupply   string `json:"placeOfSupply"`
	ReverseCharge   bool   `json:"reverseCharge"`

	LineItems []LineItem      `json:"lineItems"`
	CGSTRate  decimal.Decimal `json:"cgstRate"`
	SGSTRate  decimal.Decimal `json:"sgstRate"`
	IGSTRate  decimal.Decimal `json:"igstRate"`
	Totals

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type InvoiceInput struct {
	InvoiceNumber   string          `json:"invoiceNumber" validate:"required"`
	Date            string          `json:"date" validate:"required,isodate"`
	SupplyDate      string          `json:"supplyDate" validate:"isodate"`
	CustomerName    string          `json:"customerName" validate:"required"`
	CustomerPhone   string          `json:"customerPhone" validate:"omitempty,phone10"`
	CustomerAddress string          `json:"customerAddress"`
	CustomerGSTIN   string          `json:"customerGSTIN"`
	State           string          `json:"state"`
	StateCode       string          `json:"stateCode"`
	TransportMode   string          `json:"transportMode"`
	VehicleNumber   string          `json:"vehicleNumber"`
	PlaceOfSupply   string          `json:"placeOfSupply"`
	ReverseCharge   bool            `json:"reverseCharge"`
	LineItems       []LineItemInput `json:"lineItems"`
	CGSTRate        NumericText     `json:"cgstRate"`
	SGSTRate        NumericText     `json:"sgstRate"`
	IGSTRate        NumericText     `json:"igstRate"`
}

var invoiceMessages = map[string]string{
	"InvoiceNumber": "Please enter invoice number.",
	"Date":          "Please enter a valid invoice date.",
	"SupplyDate":    "Please enter a valid supply date.",
	"CustomerName":  msgMissingName,
	"CustomerPhone": msgInvalidPhone,
}

func (in *InvoiceInput) normalize() {
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	in.Date = strings.TrimSpace(in.Date)
	in.SupplyDate = strings.TrimSpace(in.SupplyDate)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.CustomerGSTIN = strings.ToUpper(strings.TrimSpace(in.CustomerGSTIN))
	in.VehicleNumber = strings.ToUpper(strings.TrimSpace(in.VehicleNumber))
}

// build validates the input and prices it into an invoice.
func (in InvoiceInput) build() (Invoice, error) {
	in.normalize()
	if err := utils.ValidateStruct(in, invoiceMessages); err != nil {
		return Invoice{}, err
	}
	items := BuildLineItems(in.LineItems)
	if len(items) == 0 {
		return Invoice{}, utils.NewValidationError("lineItems", "Please add at least one product.")
	}
	inv := Invoice{
		InvoiceNumber:   in.InvoiceNumber,
		Date:            in.Date,
		SupplyDate:      in.SupplyDate,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		CustomerGSTIN:   in.CustomerGSTIN,
		State:           in.State,
		StateCode:       in.StateCode,
		TransportMode:   in.TransportMode,
		VehicleNumber:   in.VehicleNumber,
		PlaceOfSupply:   in.PlaceOfSupply,
		ReverseCharge:   in.ReverseCharge,
		LineItems:       items,
		CGSTRate:        in.CGSTRate.DecimalOr(DefaultCGSTRate),
		SGSTRate:        in.SGSTRate.DecimalOr(DefaultSGSTRate),
		IGSTRate:        in.IGSTRate.DecimalOr(DefaultIGSTRate),
	}
	inv.Totals = ComputeTotals(inv.LineItems, inv.CGSTRate, inv.SGSTRate, inv.IGSTRate)
	return inv, nil
}

// InvoiceFilter narrows List. From and To are inclusive YYYY-MM-DD bounds.
type InvoiceFilter struct {
	Search string `form:"search"`
	From   string `form:"from"`
	To     string `form:"to"`
}

type InvoiceService struct {
	deps      *Deps
	bin       *RecycleBin
	customers *CustomerService
	catalog   *CatalogService
	settings  *SettingsService
}

func (s *InvoiceService) invoices() store.Collection {
	return s.deps.collection(CollectionInvoices)
}

// PreviewTotals prices input without storing anything.
func (s *InvoiceService) PreviewTotals(input InvoiceInput) (Totals, error) {
	items := BuildLineItems(input.LineItems)
	return ComputeTotals(items,
		input.CGSTRate.DecimalOr(DefaultCGSTRate),
		input.SGSTRate.DecimalOr(DefaultSGSTRate),
		input.IGSTRate.DecimalOr(DefaultIGSTRate),
	), nil
}

func (s *InvoiceService) Create(ctx context.Context, input InvoiceInput) (inv *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Create", trace.WithAttributes(attribute.String("invoice_number", input.InvoiceNumber)))
	defer func() { endSpan(span, err) }()

	built, err := input.build()
	if err != nil {
		return nil, err
	}

	err = s.deps.withLock(ctx, "invoice-number:"+built.InvoiceNumber, func() error {
		if err := s.checkNumber(ctx, built.InvoiceNumber, ""); err != nil {
			return err
		}
		rec, err := toRecord(built)
		if err != nil {
			return err
		}
		id, err := s.invoices().Insert(ctx, rec)
		if err != nil {
			return err
		}
		inv, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "Create", "create invoice", built.InvoiceNumber, err)
		return nil, err
	}

	metrics.InvoicesSaved.WithLabelValues("create").Inc()
	s.rememberRelated(ctx, input, inv)
	return inv, nil
}

func (s *InvoiceService) Update(ctx context.Context, id string, input InvoiceInput) (inv *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Update", trace.WithAttributes(attribute.String("id", id)))
	defer func() { endSpan(span, err) }()

	if _, err = s.Get(ctx, id); err != nil {
		return nil, err
	}
	built, err := input.build()
	if err != nil {
		return nil, err
	}

	err = s.deps.withLock(ctx, "invoice-number:"+built.InvoiceNumber, func() error {
		if err := s.checkNumber(ctx, built.InvoiceNumber, id); err != nil {
			return err
		}
		rec, err := toRecord(built)
		if err != nil {
			return err
		}
		if err := s.invoices().Update(ctx, id, rec); err != nil {
			return err
		}
		inv, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "Update", "update invoice", id, err)
		return nil, err
	}

	metrics.InvoicesSaved.WithLabelValues("update").Inc()
	s.rememberRelated(ctx, input, inv)
	return inv, nil
}

// checkNumber warns when another invoice already carries number. Numbers are
// only advisory unless strict numbering is switched on.
func (s *InvoiceService) checkNumber(ctx context.Context, number, selfID string) error {
	recs, err := s.invoices().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("invoiceNumber", number)},
		Limit:   2,
	})
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.ID() == selfID {
			continue
		}
		if s.deps.StrictInvoiceNumbers {
			return &utils.DuplicateError{Entity: "invoice", Key: number, Message: msgDuplicateInvoice}
		}
		s.deps.Logger.WithFields(logrus.Fields{
			"module":        "InvoiceService",
			"invoiceNumber": number,
			"existingId":    rec.ID(),
		}).Warn("invoice number already in use")
		return nil
	}
	return nil
}

// rememberRelated keeps the customer and product catalog in step with a saved
// invoice. Failures are logged; the invoice itself is already stored.
func (s *InvoiceService) rememberRelated(ctx context.Context, input InvoiceInput, inv *Invoice) {
	if utils.IsValidPhone(inv.CustomerPhone) && inv.CustomerName != "" {
		_, _, err := s.customers.Remember(ctx, NewCustomer{
			Phone:     inv.CustomerPhone,
			Name:      inv.CustomerName,
			Address:   inv.CustomerAddress,
			GSTIN:     inv.CustomerGSTIN,
			State:     input.State,
			StateCode: input.StateCode,
		})
		if err != nil {
			config.LogWarn(s.deps.Logger, "InvoiceService", "rememberRelated", "remember customer failed", inv.CustomerPhone, err)
		}
	}
	if err := s.catalog.RememberLineItems(ctx, inv.LineItems); err != nil {
		config.LogWarn(s.deps.Logger, "InvoiceService", "rememberRelated", "remember products failed", inv.InvoiceNumber, err)
	}
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*Invoice, error) {
	rec, ok, err := s.invoices().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &utils.NotFoundError{Entity: "invoice", Key: id, Message: msgInvoiceNotFound}
	}
	inv, err := fromRecord[Invoice](rec)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	recs, err := s.invoices().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("invoiceNumber", strings.TrimSpace(number))},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &utils.NotFoundError{Entity: "invoice", Key: number, Message: msgInvoiceNotFound}
	}
	inv, err := fromRecord[Invoice](recs[0])
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LoadForEdit resolves key as an invoice number first and as an id second.
func (s *InvoiceService) LoadForEdit(ctx context.Context, key string) (*Invoice, error) {
	inv, err := s.GetByNumber(ctx, key)
	if err == nil {
		return inv, nil
	}
	if !utils.IsNotFound(err) {
		config.LogError(s.deps.Logger, "InvoiceService", "LoadForEdit", "lookup by number", key, err)
		return nil, err
	}
	return s.Get(ctx, key)
}

// List returns invoices newest first. Search matches number, customer name
// or phone; From and To bound the invoice date.
func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	var filters []store.Filter
	if f.From != "" {
		filters = append(filters, store.Gte("date", f.From))
	}
	if f.To != "" {
		filters = append(filters, store.Lte("date", f.To))
	}
	recs, err := s.invoices().Query(ctx, store.Query{Filters: filters, OrderBy: store.FieldCreatedAt, Desc: true})
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "List", "query invoices", f, err)
		return nil, err
	}
	all, err := fromRecords[Invoice](recs)
	if err != nil {
		return nil, err
	}
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return all, nil
	}
	out := make([]Invoice, 0, len(all))
	for _, inv := range all {
		if utils.ContainsFold(inv.InvoiceNumber, search) ||
			utils.ContainsFold(inv.CustomerName, search) ||
			strings.Contains(inv.CustomerPhone, search) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *InvoiceService) ByCustomer(ctx context.Context, phone string) ([]Invoice, error) {
	recs, err := s.invoices().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("customerPhone", strings.TrimSpace(phone))},
		OrderBy: store.FieldCreatedAt,
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}
	return fromRecords[Invoice](recs)
}

func (s *InvoiceService) ByDateRange(ctx context.Context, from, to string) ([]Invoice, error) {
	return s.List(ctx, InvoiceFilter{From: from, To: to})
}

func (s *InvoiceService) Delete(ctx context.Context, id string) (*RecycleBinEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.bin.SoftDelete(ctx, EntityInvoice, id)
}
