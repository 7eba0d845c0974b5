package orders

import "encoding/json"

// Order is an opaque record returned by the Tiny API. Orders are passed
// through to the rendering layer unmodified.
type Order = json.RawMessage

// Kind tags the outcome of one fetch call
type Kind int

const (
	// KindSuccess means the API returned a page of orders
	KindSuccess Kind = iota
	// KindAPIError means the API answered 2xx but reported status "Erro"
	KindAPIError
	// KindUnexpectedShape means the API answered 2xx with a body whose
	// shape does not match any known response
	KindUnexpectedShape
	// KindParseFailure means the body could not be interpreted at all
	// (invalid JSON or a structurally missing "paginacao" object)
	KindParseFailure
	// KindTransportError means the HTTP call itself failed or returned a
	// non-2xx status
	KindTransportError
)

// Result is the uniform outcome of FetchOrders. Orders is populated only
// for KindSuccess; Message carries a human-readable description for every
// other kind and is rendered inline in the orders view.
type Result struct {
	Kind    Kind
	Orders  []Order
	Message string
}

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindAPIError:
		return "api error"
	case KindUnexpectedShape:
		return "unexpected shape"
	case KindParseFailure:
		return "parse failure"
	case KindTransportError:
		return "transport error"
	}
	return "unknown"
}
