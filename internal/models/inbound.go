package models

// Inbound represents an x-ray inbound configuration
type Inbound struct {
	ID       int    `json:"id"`
	Remark   string `json:"remark"`
	Enable   bool   `json:"enable"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Settings string `json:"settings"`
}

// InboundSettings is the parsed form of the inbound settings JSON blob
type InboundSettings struct {
	Clients []Client `json:"clients"`
}
