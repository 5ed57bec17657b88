package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompanyProfile overrides the built-in settings defaults.
// Fields left empty in the file keep the built-in value.
//
//	companyName: RSK ENTERPRISES
//	address: 76(3) Padmavathipuram, ...
//	phone: "8608127349"
//	gstin: ""
//	bankDetails:
//	  accountName: RSK ENTERPRISES
//	  bankName: CANARA BANK
//	  accountNumber: "120033201829"
//	  ifsc: CNRBOO16563
type CompanyProfile struct {
	CompanyName string `yaml:"companyName"`
	Address     string `yaml:"address"`
	Phone       string `yaml:"phone"`
	GSTIN       string `yaml:"gstin"`
	Email       string `yaml:"email"`
	BankDetails struct {
		AccountName   string `yaml:"accountName"`
		BankName      string `yaml:"bankName"`
		AccountNumber string `yaml:"accountNumber"`
		IFSC          string `yaml:"ifsc"`
	} `yaml:"bankDetails"`
}

// LoadCompanyProfile returns nil, nil when path is empty.
func LoadCompanyProfile(path string) (*CompanyProfile, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company profile: %w", err)
	}
	return ParseCompanyProfile(raw)
}

func ParseCompanyProfile(raw []byte) (*CompanyProfile, error) {
	var p CompanyProfile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse company profile: %w", err)
	}
	return &p, nil
}
