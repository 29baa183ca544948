package commission

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

type createTypeRequest struct {
	Name            string           `json:"name" validate:"required"`
	ProductCategory string           `json:"productCategory"`
	ProductName     string           `json:"productName"`
	Mode            Mode             `json:"commissionMode" validate:"required,oneof=percentage fixed"`
	Rate            *decimal.Decimal `json:"commissionRate"`
	FixedAmount     *int64           `json:"fixedAmount" validate:"omitempty,gte=0"`
	MinAmount       *int64           `json:"minAmount" validate:"omitempty,gte=0"`
	MaxAmount       *int64           `json:"maxAmount" validate:"omitempty,gte=0"`
	IsActive        *bool            `json:"isActive"`
}

func (req createTypeRequest) input() CreateTypeInput {
	return CreateTypeInput{
		Name:            req.Name,
		ProductCategory: req.ProductCategory,
		ProductName:     req.ProductName,
		Mode:            req.Mode,
		Rate:            req.Rate,
		FixedAmount:     req.FixedAmount,
		MinAmount:       req.MinAmount,
		MaxAmount:       req.MaxAmount,
		IsActive:        req.IsActive,
	}
}

type createAssignmentRequest struct {
	CommissionTypeID int64            `json:"commissionTypeId" validate:"gt=0"`
	MarketerID       string           `json:"marketerId" validate:"required"`
	MarketerName     string           `json:"marketerName"`
	Factor           string           `json:"factor"`
	FactorValue      *decimal.Decimal `json:"factorValue"`
	AdditionalRate   *decimal.Decimal `json:"additionalRate"`
	IsActive         *bool            `json:"isActive"`
}

func (req createAssignmentRequest) input() CreateAssignmentInput {
	return CreateAssignmentInput{
		CommissionTypeID: req.CommissionTypeID,
		MarketerID:       req.MarketerID,
		MarketerName:     req.MarketerName,
		Factor:           req.Factor,
		FactorValue:      req.FactorValue,
		AdditionalRate:   req.AdditionalRate,
		IsActive:         req.IsActive,
	}
}

type computeRequest struct {
	InvoiceID        int64  `json:"invoiceId" validate:"gt=0"`
	InvoiceAmount    int64  `json:"invoiceAmount" validate:"gt=0"`
	CommissionTypeID int64  `json:"commissionTypeId" validate:"gt=0"`
	AssignmentID     *int64 `json:"assignmentId" validate:"omitempty,gt=0"`
	MarketerID       string `json:"marketerId"`
	MarketerName     string `json:"marketerName"`
	Period           string `json:"period"`
	Notes            string `json:"notes"`
}

type markPaidRequest struct {
	PaymentDate httpx.Date `json:"paymentDate"`
}
