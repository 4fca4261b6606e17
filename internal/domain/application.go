// Package domain defines the core types and interfaces for Kestrel.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// LoanApplication is the immutable input record for one underwriting run.
type LoanApplication struct {
	ID              string    `json:"id"`
	ApplicantName   string    `json:"applicantName"`
	RequestedAmount float64   `json:"requestedAmount"`
	Purpose         string    `json:"purpose"`
	AnnualIncome    float64   `json:"annualIncome"`
	EmploymentYears float64   `json:"employmentYears"`
	ExistingDebt    float64   `json:"existingDebt"`
	Industry        string    `json:"industry"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Known loan purposes. Unknown values fall back to PurposeOther inside the
// scoring engines rather than failing validation.
const PurposeOther = "Other"

var LoanPurposes = []string{
	"Home Purchase",
	"Business Expansion",
	"Debt Consolidation",
	"Vehicle Purchase",
	"Education",
	"Home Improvement",
	"Medical Expenses",
	PurposeOther,
}

// Known industries. Unknown values fall back to IndustryOther.
const IndustryOther = "Other"

var Industries = []string{
	"Technology",
	"Healthcare",
	"Government",
	"Education",
	"Finance",
	"Retail",
	"Manufacturing",
	"Construction",
	"Hospitality",
	"Transportation",
	"Energy",
	"Real Estate",
	"Legal",
	"Consulting",
	"Non-Profit",
	IndustryOther,
}

var ErrInvalidApplication = errors.New("invalid application")

// Validate checks the field preconditions. Income must be strictly positive
// because every engine divides by it; the remaining monetary and duration
// fields must be non-negative.
func (a *LoanApplication) Validate() error {
	if a.ApplicantName == "" {
		return fmt.Errorf("%w: applicantName is required", ErrInvalidApplication)
	}
	if a.AnnualIncome <= 0 {
		return fmt.Errorf("%w: annualIncome must be positive", ErrInvalidApplication)
	}
	if a.RequestedAmount < 0 {
		return fmt.Errorf("%w: requestedAmount must be non-negative", ErrInvalidApplication)
	}
	if a.ExistingDebt < 0 {
		return fmt.Errorf("%w: existingDebt must be non-negative", ErrInvalidApplication)
	}
	if a.EmploymentYears < 0 {
		return fmt.Errorf("%w: employmentYears must be non-negative", ErrInvalidApplication)
	}
	if a.Purpose == "" {
		return fmt.Errorf("%w: purpose is required", ErrInvalidApplication)
	}
	if a.Industry == "" {
		return fmt.Errorf("%w: industry is required", ErrInvalidApplication)
	}
	return nil
}

// DTI is the debt-to-income ratio as a percentage of annual income.
func (a *LoanApplication) DTI() float64 {
	return a.ExistingDebt / a.AnnualIncome * 100
}

// LoanToIncome is the requested amount as a fraction of annual income.
func (a *LoanApplication) LoanToIncome() float64 {
	return a.RequestedAmount / a.AnnualIncome
}

// ApplicationRequest is the API request payload for submitting an application.
type ApplicationRequest struct {
	ApplicantName   string  `json:"applicantName"`
	RequestedAmount float64 `json:"requestedAmount"`
	Purpose         string  `json:"purpose"`
	AnnualIncome    float64 `json:"annualIncome"`
	EmploymentYears float64 `json:"employmentYears"`
	ExistingDebt    float64 `json:"existingDebt"`
	Industry        string  `json:"industry"`
	Strategy        string  `json:"strategy,omitempty"`
}

// ToApplication converts a request to a LoanApplication domain object.
func (r *ApplicationRequest) ToApplication(id string) *LoanApplication {
	return &LoanApplication{
		ID:              id,
		ApplicantName:   r.ApplicantName,
		RequestedAmount: r.RequestedAmount,
		Purpose:         r.Purpose,
		AnnualIncome:    r.AnnualIncome,
		EmploymentYears: r.EmploymentYears,
		ExistingDebt:    r.ExistingDebt,
		Industry:        r.Industry,
		CreatedAt:       time.Now().UTC(),
	}
}
