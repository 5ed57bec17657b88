package models

import (
	"context"
	"strings"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/metrics"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
)

const (
	msgInvalidPhone      = "Please enter a valid 10-digit phone number."
	msgMissingName       = "Please enter customer name."
	msgInvalidGSTIN      = "Please enter a valid 15-character GSTIN."
	msgDuplicateCustomer = "Customer with this phone number already exists."
	msgCustomerNotFound  = "Customer not found."
)

type Customer struct {
	ID        string `json:"id,omitempty"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	State     string `json:"state,omitempty"`
	StateCode string `json:"stateCode,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type NewCustomer struct {
	Phone     string `json:"phone" validate:"phone10"`
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin" validate:"gstin"`
	State     string `json:"state"`
	StateCode string `json:"stateCode"`
}

var customerMessages = map[string]string{
	"Phone": msgInvalidPhone,
	"Name":  msgMissingName,
	"GSTIN": msgInvalidGSTIN,
}

func (in *NewCustomer) normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.GSTIN = strings.ToUpper(strings.TrimSpace(in.GSTIN))
	in.State = strings.TrimSpace(in.State)
	in.StateCode = strings.TrimSpace(in.StateCode)
}

func (in NewCustomer) record() store.Record {
	return store.Record{
		"phone":     in.Phone,
		"name":      in.Name,
		"address":   in.Address,
		"gstin":     in.GSTIN,
		"state":     in.State,
		"stateCode": in.StateCode,
	}
}

type CustomerService struct {
	deps *Deps
	bin  *RecycleBin
}

func (s *CustomerService) customers() store.Collection {
	return s.deps.collection(CollectionCustomers)
}

func (s *CustomerService) findByPhone(ctx context.Context, phone string) (*Customer, error) {
	recs, err := s.customers().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("phone", phone)},
		Limit:   1,
	})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	c, err := fromRecord[Customer](recs[0])
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) get(ctx context.Context, id string) (*Customer, error) {
	rec, ok, err := s.customers().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &utils.NotFoundError{Entity: "customer", Key: id, Message: msgCustomerNotFound}
	}
	c, err := fromRecord[Customer](rec)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByPhone looks a customer up by its natural key.
func (s *CustomerService) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	phone = strings.TrimSpace(phone)
	if !utils.IsValidPhone(phone) {
		return nil, utils.NewValidationError("phone", msgInvalidPhone)
	}
	c, err := s.findByPhone(ctx, phone)
	if err != nil {
		config.LogError(s.deps.Logger, "CustomerService", "GetByPhone", "query customers", phone, err)
		return nil, err
	}
	if c == nil {
		return nil, &utils.NotFoundError{Entity: "customer", Key: phone, Message: msgCustomerNotFound}
	}
	return c, nil
}

// Save creates a customer, or updates the one holding the same phone when
// editing is set. Without editing an existing phone is a DuplicateError.
func (s *CustomerService) Save(ctx context.Context, input NewCustomer, editing bool) (*Customer, error) {
	input.normalize()
	if err := utils.ValidateStruct(input, customerMessages); err != nil {
		return nil, err
	}

	var saved *Customer
	err := s.deps.withLock(ctx, "customer-phone:"+input.Phone, func() error {
		existing, err := s.findByPhone(ctx, input.Phone)
		if err != nil {
			return err
		}
		switch {
		case existing != nil && editing:
			if err := s.customers().Update(ctx, existing.ID, input.record()); err != nil {
				return err
			}
			saved, err = s.get(ctx, existing.ID)
			return err
		case existing != nil:
			return &utils.DuplicateError{Entity: "customer", Key: input.Phone, Message: msgDuplicateCustomer}
		}
		id, err := s.customers().Insert(ctx, input.record())
		if err != nil {
			return err
		}
		saved, err = s.get(ctx, id)
		return err
	})
	if err != nil {
		config.LogError(s.deps.Logger, "CustomerService", "Save", "save customer", input, err)
		return nil, err
	}
	return saved, nil
}

// Remember stores the customer typed on an invoice unless that phone is
// already known. It returns the stored customer and whether it was created.
func (s *CustomerService) Remember(ctx context.Context, input NewCustomer) (*Customer, bool, error) {
	input.normalize()
	if !utils.IsValidPhone(input.Phone) {
		return nil, false, utils.NewValidationError("phone", msgInvalidPhone)
	}
	if input.Name == "" {
		return nil, false, utils.NewValidationError("name", msgMissingName)
	}

	var (
		saved   *Customer
		created bool
	)
	err := s.deps.withLock(ctx, "customer-phone:"+input.Phone, func() error {
		existing, err := s.findByPhone(ctx, input.Phone)
		if err != nil {
			return err
		}
		if existing != nil {
			saved = existing
			return nil
		}
		id, err := s.customers().Insert(ctx, input.record())
		if err != nil {
			return err
		}
		created = true
		saved, err = s.get(ctx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return saved, created, nil
}

// List returns customers newest first, narrowed by a case-insensitive match
// on name, phone or GSTIN when search is not blank.
func (s *CustomerService) List(ctx context.Context, search string) ([]Customer, error) {
	recs, err := s.customers().Query(ctx, store.Query{OrderBy: store.FieldCreatedAt, Desc: true})
	if err != nil {
		config.LogError(s.deps.Logger, "CustomerService", "List", "query customers", search, err)
		return nil, err
	}
	all, err := fromRecords[Customer](recs)
	if err != nil {
		return nil, err
	}
	search = strings.TrimSpace(search)
	if search == "" {
		return all, nil
	}
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if utils.ContainsFold(c.Name, search) || strings.Contains(c.Phone, search) || utils.ContainsFold(c.GSTIN, search) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Delete moves the customer with phone into the recycle bin.
func (s *CustomerService) Delete(ctx context.Context, phone string) (*RecycleBinEntry, error) {
	c, err := s.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return s.bin.SoftDelete(ctx, EntityCustomer, c.ID)
}

// CleanupDuplicates removes every customer that shares a phone with a newer
// one and returns how many were removed.
func (s *CustomerService) CleanupDuplicates(ctx context.Context) (int, error) {
	all, err := s.List(ctx, "")
	if err != nil {
		return 0, err
	}
	_, remove := ReconcileDuplicates(all)
	if len(remove) == 0 {
		return 0, nil
	}

	err = store.RunInTransaction(ctx, s.deps.Store, func(tx store.Store) error {
		coll := tx.Collection(CollectionCustomers)
		for _, c := range remove {
			if err := coll.Delete(ctx, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(s.deps.Logger, "CustomerService", "CleanupDuplicates", "delete duplicates", len(remove), err)
		return 0, err
	}
	metrics.DuplicateCustomersRemoved.Add(float64(len(remove)))
	s.deps.Logger.WithField("count", len(remove)).Info("duplicate customers removed")
	return len(remove), nil
}
