package schema

const emailRegex = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

// IntakeSteps returns the ordered questionnaire used for brokerage client
// onboarding. Field names are the keys of the per-step answer maps.
func IntakeSteps() []StepDefinition {
	return []StepDefinition{
		{
			Key:         "business_profile",
			Title:       "Business Profile",
			Description: "Capture the foundational client and entity details.",
			HelpText:    "Use legal names and current operating structure to avoid downstream report rework.",
			Fields: []FieldDefinition{
				{Name: "businessName", Label: "Business name", Type: FieldText, Required: true},
				{Name: "contactName", Label: "Primary contact", Type: FieldText, Required: true},
				{Name: "email", Label: "Contact email", Type: FieldText, Required: true,
					Validation: &Validation{Regex: emailRegex}},
				{Name: "phone", Label: "Phone", Type: FieldText},
				{Name: "entityType", Label: "Entity type", Type: FieldSelect, Required: true,
					Options: []string{"sole_trader", "partnership", "llc", "corporation", "trust"}},
				{Name: "yearsInOperation", Label: "Years in operation", Type: FieldNumber, Required: true,
					Validation: &Validation{Min: fptr(0), Max: fptr(200)}},
			},
		},
		{
			Key:         "financial_overview",
			Title:       "Financial Overview",
			Description: "Collect headline financials and the revenue mix.",
			HelpText:    "Figures can be approximate; the revenue mix must total 100%.",
			Fields: []FieldDefinition{
				{Name: "annualRevenue", Label: "Annual revenue", Type: FieldCurrency, Required: true,
					Validation: &Validation{Min: fptr(0)}},
				{Name: "annualProfit", Label: "Annual net profit", Type: FieldCurrency, Required: true},
				{Name: "revenuePctProducts", Label: "Revenue % from products", Type: FieldPercent,
					Validation: &Validation{Min: fptr(0), Max: fptr(100), SumGroup: "revenue_mix"}},
				{Name: "revenuePctServices", Label: "Revenue % from services", Type: FieldPercent,
					Validation: &Validation{Min: fptr(0), Max: fptr(100), SumGroup: "revenue_mix"}},
				{Name: "revenuePctRecurring", Label: "Revenue % recurring", Type: FieldPercent,
					Validation: &Validation{Min: fptr(0), Max: fptr(100), SumGroup: "revenue_mix"}},
				{Name: "hasOutstandingDebt", Label: "Business carries outstanding debt", Type: FieldBoolean},
				{Name: "debtDetails", Label: "Debt details", Type: FieldTextarea, Required: true,
					Condition:  &Condition{Field: "hasOutstandingDebt", Equals: "true"},
					Validation: &Validation{MaxWords: 200}},
			},
		},
		{
			Key:         "operations",
			Title:       "Operations",
			Description: "Understand how the business runs day to day.",
			HelpText:    "Focus on what a buyer would need to keep the business running.",
			Fields: []FieldDefinition{
				{Name: "employeeCount", Label: "Employee count", Type: FieldNumber, Required: true,
					Validation: &Validation{Min: fptr(0)}},
				{Name: "keyProcesses", Label: "Key processes", Type: FieldTextarea,
					Validation: &Validation{MaxWords: 300}},
				{Name: "usesContractors", Label: "Relies on contractors", Type: FieldBoolean},
				{Name: "contractorDetails", Label: "Contractor arrangements", Type: FieldTextarea,
					Required:  true,
					Condition: &Condition{Field: "usesContractors", Equals: "true"}},
			},
		},
		{
			Key:         "property_lease",
			Title:       "Property and Lease",
			Description: "Capture premises tenure and any lease obligations.",
			HelpText:    "Lease terms materially affect valuation; explain anything unusual.",
			Fields: []FieldDefinition{
				{Name: "premisesTenure", Label: "Premises tenure", Type: FieldSelect, Required: true,
					Options: []string{"owned", "leasehold", "remote"}},
				{Name: "leaseExplanation", Label: "Explain the lease", Type: FieldTextarea, Required: true,
					Condition:  &Condition{Field: "premisesTenure", Equals: "leasehold"},
					Validation: &Validation{MaxWords: 250}},
				{Name: "leaseExpiry", Label: "Lease expiry", Type: FieldText,
					Condition: &Condition{Field: "premisesTenure", Equals: "leasehold"}},
				{Name: "propertyHighlights", Label: "Property highlights", Type: FieldMultiselect,
					Options: []string{"high_foot_traffic", "recently_renovated", "parking", "expansion_space"}},
			},
		},
		{
			Key:         "goals_constraints",
			Title:       "Goals and Constraints",
			Description: "Collect strategic outcomes, risks, and timing requirements.",
			HelpText:    "Document target outcomes with measurable constraints for better synthesis quality.",
			Fields: []FieldDefinition{
				{Name: "primaryGoal", Label: "Primary goal", Type: FieldTextarea, Required: true,
					Validation: &Validation{MaxWords: 150}},
				{Name: "timeline", Label: "Target timeline", Type: FieldSelect, Required: true,
					Options: []string{"under_6_months", "6_to_12_months", "over_12_months"}},
				{Name: "constraints", Label: "Known constraints", Type: FieldTextarea},
				{Name: "dealPreferences", Label: "Deal preferences", Type: FieldMultiselect,
					Options: []string{"full_sale", "majority_stake", "earn_out", "advisor_led"}},
				{Name: "advisorInvolved", Label: "External advisor engaged", Type: FieldBoolean},
				{Name: "advisorName", Label: "Advisor name", Type: FieldText,
					Condition: &Condition{AnyOf: []FieldEquals{
						{Field: "advisorInvolved", Equals: "true"},
						{Field: "dealPreferences", Equals: "advisor_led"},
					}}},
			},
		},
		{
			Key:         "documents",
			Title:       "Structured Document Upload",
			Description: "Attach key source records by category.",
			HelpText:    "Upload clean source files to reduce ambiguity during synthesis.",
			Fields:      []FieldDefinition{},
		},
		{
			Key:         "review",
			Title:       "Review and Confirm",
			Description: "Review all captured information before final submission.",
			HelpText:    "Confirm details are complete. Submission starts the internal pipeline.",
			Fields: []FieldDefinition{
				{Name: "confirmAccuracy", Label: "Information is accurate and complete", Type: FieldBoolean, Required: true},
			},
		},
	}
}
