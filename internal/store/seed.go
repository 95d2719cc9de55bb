package store

// seedCustomers returns the sample database written when no customer file
// exists yet. Ids and field values match the historical seed data.
func seedCustomers() []Customer {
	return []Customer{
		{
			CustomerID:    "CUST001",
			Name:          "Alice Johnson",
			Products:      []string{"Organic Apples", "Whole Wheat Bread"},
			OrderID:       "ORD1001",
			Location:      "New York, NY",
			Price:         35.50,
			PaidStatus:    "paid",
			PaymentMethod: "credit_card",
			Status:        "delivered",
		},
		{
			CustomerID:    "CUST002",
			Name:          "Bob Williams",
			Products:      []string{"Almond Milk", "Granola Bars"},
			OrderID:       "ORD1002",
			Location:      "Los Angeles, CA",
			Price:         22.00,
			PaidStatus:    "pending",
			PaymentMethod: "paypal",
			Status:        "shipped",
		},
		{
			CustomerID:    "CUST003",
			Name:          "Charlie Brown",
			Products:      []string{"Greek Yogurt", "Fresh Berries"},
			OrderID:       "ORD1003",
			Location:      "Chicago, IL",
			Price:         15.75,
			PaidStatus:    "paid",
			PaymentMethod: "debit_card",
			Status:        "delivered",
		},
		{
			CustomerID:    "CUST004",
			Name:          "Diana Miller",
			Products:      []string{"Chicken Breast", "Organic Broccoli"},
			OrderID:       "ORD1004",
			Location:      "Houston, TX",
			Price:         45.00,
			PaidStatus:    "paid",
			PaymentMethod: "credit_card",
			Status:        "delivered",
		},
		{
			CustomerID:    "CUST005",
			Name:          "Ethan Davis",
			Products:      []string{"Pasta", "Tomato Sauce", "Parmesan Cheese"},
			OrderID:       "ORD1005",
			Location:      "Phoenix, AZ",
			Price:         12.50,
			PaidStatus:    "pending",
			PaymentMethod: "cash_on_delivery",
			Status:        "processing",
		},
	}
}
