package ar

import "github.com/odyssey-erp/backoffice/internal/platform/httpx"

type lineItemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
	UnitPrice   int64  `json:"unitPrice" validate:"gte=0"`
}

type createInvoiceRequest struct {
	ClientID  string            `json:"clientId" validate:"required"`
	Type      Type              `json:"type" validate:"required,oneof=quotation invoice"`
	Number    string            `json:"number" validate:"required"`
	IssueDate httpx.Date        `json:"issueDate"`
	DueDate   httpx.Date        `json:"dueDate"`
	Items     []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount  int64             `json:"discount" validate:"gte=0"`
	Tax       int64             `json:"tax" validate:"gte=0"`
	Notes     string            `json:"notes"`
	Terms     string            `json:"terms"`
}

func (req createInvoiceRequest) input() CreateInvoiceInput {
	items := make([]LineItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, LineItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return CreateInvoiceInput{
		ClientID:  req.ClientID,
		Type:      req.Type,
		Number:    req.Number,
		IssueDate: req.IssueDate.Time,
		DueDate:   req.DueDate.Ptr(),
		Items:     items,
		Discount:  req.Discount,
		Tax:       req.Tax,
		Notes:     req.Notes,
		Terms:     req.Terms,
	}
}

type recordPaymentRequest struct {
	Amount    int64      `json:"amount" validate:"gt=0"`
	Method    string     `json:"method"`
	Date      httpx.Date `json:"date"`
	Reference string     `json:"reference"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason"`
}
