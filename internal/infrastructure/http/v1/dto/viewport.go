package dto

type PanRequest struct {
	DX float64 `json:"dx" validate:"gte=-10000,lte=10000"`
	DY float64 `json:"dy" validate:"gte=-10000,lte=10000"`
}
