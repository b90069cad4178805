package rules

// DefaultPatterns returns the built-in classification pattern set.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// Income patterns - highest priority.
		{
			Name:     "Direct Deposit",
			Category: "Income",
			Regex:    `\b(DIRECTDEP|DIRECT\s*DEP|PAYROLL|SALARY|WAGES|SUELDO|HABERES)\b`,
			Priority: 100,
			Strength: 0.95,
		},
		{
			Name:     "Interest Income",
			Category: "Income",
			Regex:    `\b(INTEREST|INT\s*EARNED|DIVIDEND|DIV|INTERESES)\b`,
			Priority: 95,
			Strength: 0.9,
		},
		{
			Name:     "Tax Refund",
			Category: "Income",
			Regex:    `\b(TAX\s*REF|IRS\s*TREAS|STATE\s*TAX\s*REF)\b`,
			Priority: 95,
			Strength: 0.95,
		},
		{
			Name:     "Refund",
			Category: "Income",
			Regex:    `\b(REFUND|REIMB|REIMBURSEMENT|CASHBACK|CASH\s*BACK|REEMBOLSO)\b`,
			Priority: 90,
			Strength: 0.85,
		},

		// Transfers.
		{
			Name:     "Transfer",
			Category: "Transfers",
			Regex:    `\b(TRANSFER|XFER|TFR|WIRE\s*(IN|OUT)|TRANSFERENCIA)\b`,
			Priority: 85,
			Strength: 0.85,
		},
		{
			Name:     "Credit Card Payment",
			Category: "Transfers",
			Regex:    `\b(CC\s*PAYMENT|CREDIT\s*CARD\s*PAY|CARD\s*PAYMENT|PMT\s*TO)\b`,
			Priority: 80,
			Strength: 0.8,
		},

		// Everyday spend.
		{
			Name:     "Supermarket",
			Category: "Supermarket",
			Regex:    `\b(SUPERMARKET|SUPERMERCADO|GROCERY|GROCER|COTO|CARREFOUR|WALMART|SAFEWAY|KROGER|ALDI|LIDL|TRADER\s*JOE|WHOLE\s*FOODS|DIA%?)\b`,
			Priority: 75,
			Strength: 0.9,
		},
		{
			Name:     "Restaurants",
			Category: "Restaurants",
			Regex:    `\b(RESTAURANT|RESTO|CAFE|COFFEE|STARBUCKS|MCDONALD|BURGER|PIZZA|SUSHI|PEDIDOSYA|RAPPI|UBER\s*EATS|DOORDASH|GRUBHUB)\b`,
			Priority: 70,
			Strength: 0.85,
		},
		{
			Name:     "Transport",
			Category: "Transport",
			Regex:    `\b(UBER|LYFT|CABIFY|TAXI|METRO|SUBE|PARKING|TOLL|PEAJE)\b`,
			Priority: 70,
			Strength: 0.85,
		},
		{
			Name:     "Fuel",
			Category: "Transport",
			Regex:    `\b(YPF|SHELL|EXXON|CHEVRON|TEXACO|GAS\s*STATION|FUEL|NAFTA|COMBUSTIBLE)\b`,
			Priority: 70,
			Strength: 0.85,
		},
		{
			Name:     "Subscriptions",
			Category: "Subscriptions",
			Regex:    `\b(NETFLIX|SPOTIFY|HULU|DISNEY|HBO|YOUTUBE\s*PREMIUM|PRIME\s*VIDEO|ICLOUD|DROPBOX)\b`,
			Priority: 70,
			Strength: 0.9,
		},
		{
			Name:     "Utilities",
			Category: "Utilities",
			Regex:    `\b(ELECTRIC|EDESUR|EDENOR|WATER|AYSA|GAS\s*NATURAL|METROGAS|INTERNET|FIBERTEL|TELECOM|COMCAST|VERIZON|AT&T|PHONE\s*BILL)\b`,
			Priority: 65,
			Strength: 0.85,
		},
		{
			Name:     "Pharmacy",
			Category: "Health",
			Regex:    `\b(PHARMACY|FARMACIA|FARMACITY|CVS|WALGREENS|DROGUERIA)\b`,
			Priority: 65,
			Strength: 0.85,
		},
		{
			Name:     "Rent",
			Category: "Housing",
			Regex:    `\b(RENT\s*PAYMENT|ALQUILER|LANDLORD|MORTGAGE|HIPOTECA)\b`,
			Priority: 65,
			Strength: 0.85,
		},
		{
			Name:     "ATM",
			Category: "Cash & ATM",
			Regex:    `\b(ATM|CAJERO|CASH\s*WITHDRAWAL|EXTRACCION)\b`,
			Priority: 60,
			Strength: 0.8,
		},
		{
			Name:     "Bank Fees",
			Category: "Bank Fees",
			Regex:    `\b(SERVICE\s*FEE|MONTHLY\s*FEE|OVERDRAFT|COMISION|MANTENIMIENTO\s*DE\s*CUENTA)\b`,
			Priority: 60,
			Strength: 0.8,
		},
		{
			Name:     "Online Shopping",
			Category: "Shopping",
			Regex:    `\b(AMAZON|AMZN|MERCADOLIBRE|MERCADO\s*LIBRE|EBAY|ALIEXPRESS|ETSY)\b`,
			Priority: 55,
			Strength: 0.8,
		},
	}
}
