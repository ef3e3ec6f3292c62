package dummyapi

// Customer, Order and Ticket are the upstream record shapes served by the
// dummy API and consumed by the ETL job.
type Customer struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Order struct {
	OrderID       string  `json:"order_id"`
	CustomerEmail string  `json:"customer_email"`
	Status        string  `json:"status"`
	OrderTotal    float64 `json:"order_total"`
	OrderedAt     string  `json:"ordered_at"`
}

type Ticket struct {
	TicketID      string   `json:"ticket_id"`
	CustomerEmail string   `json:"customer_email"`
	Subject       string   `json:"subject"`
	Issue         string   `json:"issue"`
	Priority      string   `json:"priority,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type Dataset struct {
	Customers []Customer `json:"customers"`
	Orders    []Order    `json:"orders"`
	Tickets   []Ticket   `json:"tickets"`
}

// SampleDataset is the fixed data served by cmd/dummyapi.
func SampleDataset() Dataset {
	return Dataset{
		Customers: []Customer{
			{Email: "morgan@east.ai", FullName: "Morgan Lee"},
			{Email: "riley@pluto.dev", FullName: "Riley Chen"},
		},
		Orders: []Order{
			{OrderID: "ORD-3001", CustomerEmail: "morgan@east.ai", Status: "processing", OrderTotal: 449.00, OrderedAt: "2024-12-27"},
			{OrderID: "ORD-3002", CustomerEmail: "riley@pluto.dev", Status: "shipped", OrderTotal: 129.00, OrderedAt: "2024-12-26"},
		},
		Tickets: []Ticket{
			{
				TicketID:      "TCK-DP11",
				CustomerEmail: "morgan@east.ai",
				Subject:       "Desk assembly questions",
				Issue:         "Need guidance on cable routing.",
				Priority:      "normal",
				Channel:       "chat",
				Tags:          []string{"setup"},
			},
			{
				TicketID:      "TCK-DP12",
				CustomerEmail: "riley@pluto.dev",
				Subject:       "Lamp flickers intermittently",
				Issue:         "The light flickers after 10 minutes.",
				Priority:      "high",
				Channel:       "email",
				Tags:          []string{"hardware"},
			},
		},
	}
}
