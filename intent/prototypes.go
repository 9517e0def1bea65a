package intent

// DefaultPrototypes returns the curated example utterances per intent. The
// classifier's accuracy is entirely a function of this coverage; adding an
// intent means adding a list here and recomputing only its centroid.
func DefaultPrototypes() map[Intent][]string {
	return map[Intent][]string{
		SearchDB: {
			"What products do you have?",
			"Show me sales data",
			"How many items sold?",
			"What is the price of product?",
			"List all products in category",
			"Show inventory",
			"What are the top selling products?",
			"Total sales amount",
			"How much revenue?",
			"Product information",
			"Category details",
			"Stock availability",
			"Product pricing",
			"Sales statistics",
			"Business analytics",
			"Show me transaction history",
			"What are our best sellers?",
			"How many customers do we have?",
			"List all customers",
			"Show customer information",
			"What customers are from a specific city?",
			"Customer demographics",
			"Total number of customers",
			"Customer list",
			"Show all customer names",
			"Which customers bought the most?",
			"Customer purchase patterns",
			"Top customers by revenue",
			"Customer details",
			"Search for customer by name",
			"Find customer information",
			"Show customer data",
			"Customer analytics",
			"Customer statistics",
			"Who are our biggest customers?",
			"Customer segmentation data",
			"List customers by location",
			"Customer contact information",
			"Show customer emails",
			"Customer phone numbers",
		},
		CustomerHistory: {
			"Show my purchase history",
			"What did I buy?",
			"My previous orders",
			"My transaction history",
			"Orders for customer John Doe",
			"Show transactions for customer ID",
			"My account purchases",
			"What have I ordered before?",
			"My past invoices",
			"Show my receipts",
			"Customer order history",
			"My shopping history",
			"Previous purchases",
			"Order history for email",
			"Track my orders",
			"Look up customer orders",
			"Find customer transactions",
			"What did customer X purchase?",
			"Show orders for this customer",
			"Customer purchase history",
		},
		Support: {
			"I have a problem",
			"Need help with my order",
			"Product is broken",
			"Issue with delivery",
			"Customer service needed",
			"Contact support team",
			"File a complaint",
			"Not working properly",
			"Report an issue",
			"Need assistance",
			"Something went wrong",
			"Call customer care",
			"Urgent help required",
			"Refund request",
			"Product defect",
			"Create support ticket",
			"I need support",
		},
	}
}
