package models

// Address is user shipping address
type Address struct {
	ID            uint64
	UserID        uint64
	ReceiverName  string
	ReceiverPhone string
	Zipcode       string
	Address1      string
	Address2      string
	IsDefault     bool
}
