package shares

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

type createShareRequest struct {
	MarketerID      string           `json:"marketerId" validate:"required"`
	MarketerName    string           `json:"marketerName"`
	ShareAmount     int64            `json:"shareAmount" validate:"gt=0"`
	SharePercentage *decimal.Decimal `json:"sharePercentage"`
	Period          string           `json:"period"`
	PaymentDate     httpx.Date       `json:"paymentDate"`
	Notes           string           `json:"notes"`
}

func (req createShareRequest) input() CreateShareInput {
	return CreateShareInput{
		MarketerID:      req.MarketerID,
		MarketerName:    req.MarketerName,
		ShareAmount:     req.ShareAmount,
		SharePercentage: req.SharePercentage,
		Period:          req.Period,
		PaymentDate:     req.PaymentDate.Ptr(),
		Notes:           req.Notes,
	}
}

type markPaidRequest struct {
	PaymentDate httpx.Date `json:"paymentDate"`
}
