package models

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/utils"
)

const settingsDocID = "appSettings"

type BankDetails struct {
	AccountName   string `json:"accountName"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
}

// Settings is the company and bank profile printed on every invoice.
type Settings struct {
	CompanyName string      `json:"companyName" validate:"required"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	GSTIN       string      `json:"gstin" validate:"gstin"`
	Email       string      `json:"email,omitempty" validate:"omitempty,email"`
	BankDetails BankDetails `json:"bankDetails"`
}

var settingsMessages = map[string]string{
	"CompanyName": "Please enter company name.",
	"GSTIN":       msgInvalidGSTIN,
	"Email":       "Please enter a valid email address.",
}

// DefaultSettings is used until settings are saved. A company profile file
// overrides individual fields.
func DefaultSettings(profile *config.CompanyProfile) Settings {
	s := Settings{
		CompanyName: "RSK ENTERPRISES",
		Address:     "76(3) Padmavathipuram, Angeripalayam Road, Tirupur 641-602",
		Phone:       "8608127349",
		GSTIN:       "",
		BankDetails: BankDetails{
			AccountName:   "RSK ENTERPRISES",
			BankName:      "CANARA BANK",
			AccountNumber: "120033201829",
			IFSC:          "CNRBOO16563",
		},
	}
	if profile == nil {
		return s
	}
	override := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	override(&s.CompanyName, profile.CompanyName)
	override(&s.Address, profile.Address)
	override(&s.Phone, profile.Phone)
	override(&s.GSTIN, profile.GSTIN)
	override(&s.Email, profile.Email)
	override(&s.BankDetails.AccountName, profile.BankDetails.AccountName)
	override(&s.BankDetails.BankName, profile.BankDetails.BankName)
	override(&s.BankDetails.AccountNumber, profile.BankDetails.AccountNumber)
	override(&s.BankDetails.IFSC, profile.BankDetails.IFSC)
	return s
}

type SettingsService struct {
	deps *Deps
}

// Get returns the saved settings laid over the defaults.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	cached, ok, err := utils.RetrieveRedis[Settings](ctx, s.deps.Cache, settingsDocID)
	if err != nil {
		config.LogWarn(s.deps.Logger, "SettingsService", "Get", "settings cache read failed", nil, err)
	} else if ok {
		return *cached, nil
	}

	out := DefaultSettings(s.deps.CompanyProfile)
	rec, found, err := s.deps.collection(CollectionSettings).Get(ctx, settingsDocID)
	if err != nil {
		config.LogError(s.deps.Logger, "SettingsService", "Get", "read settings", nil, err)
		return Settings{}, err
	}
	if found {
		raw, err := json.Marshal(rec)
		if err != nil {
			return Settings{}, err
		}
		// Unmarshal onto the defaults so missing keys keep their default.
		if err := json.Unmarshal(raw, &out); err != nil {
			return Settings{}, err
		}
	}

	if err := utils.StoreRedis(ctx, s.deps.Cache, settingsDocID, out, s.deps.CacheLifespan); err != nil {
		config.LogWarn(s.deps.Logger, "SettingsService", "Get", "settings cache write failed", nil, err)
	}
	return out, nil
}

func (s *SettingsService) Save(ctx context.Context, in Settings) (Settings, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.GSTIN = strings.ToUpper(strings.TrimSpace(in.GSTIN))
	if err := utils.ValidateStruct(in, settingsMessages); err != nil {
		return Settings{}, err
	}
	rec, err := toRecord(in)
	if err != nil {
		return Settings{}, err
	}
	if err := s.deps.collection(CollectionSettings).Set(ctx, settingsDocID, rec); err != nil {
		config.LogError(s.deps.Logger, "SettingsService", "Save", "write settings", in, err)
		return Settings{}, err
	}
	if err := utils.RemoveRedis[Settings](ctx, s.deps.Cache, settingsDocID); err != nil {
		config.LogWarn(s.deps.Logger, "SettingsService", "Save", "settings cache invalidate failed", nil, err)
	}
	return in, nil
}
