package parser

// DefaultCategoryName is the catalog entry used when no rule matches.
const DefaultCategoryName = "Misc"

// FallbackDescription is returned when no description can be extracted.
const FallbackDescription = "SMS Transaction"

// CategoryRule maps a set of keywords to a category name.
// A rule matches when any keyword is a substring of the lower-cased text.
type CategoryRule struct {
	Category string   `json:"category" koanf:"category"`
	Keywords []string `json:"keywords" koanf:"keywords"`
}

// DefaultSenders are substrings of known bank and wallet sender IDs.
var DefaultSenders = []string{
	"hdfc", "icici", "sbi", "axis", "kotak", "paytm", "gpay", "phonepe", "bharatpe",
}

// DefaultTransactionKeywords mark a message body as transaction-like.
var DefaultTransactionKeywords = []string{
	"debited", "credited", "spent", "paid", "transaction", "purchase", "debit", "credit",
}

// descriptionKeywords are the tokens after which the description fallback reads.
var descriptionKeywords = []string{"debited", "credited", "spent", "paid"}

// DefaultCategoryRules are evaluated in order; earlier rules take priority.
var DefaultCategoryRules = []CategoryRule{
	{Category: "Fuel", Keywords: []string{"fuel", "petrol", "diesel", "gas", "bpcl", "iocl", "hpcl"}},
	{Category: "Fastag", Keywords: []string{"fastag", "toll", "highway"}},
	{Category: "Electricity Bill", Keywords: []string{"electricity", "electric", "power", "kseb", "bescom", "adani"}},
	{Category: "Credit Card Payment", Keywords: []string{"credit card", "card payment", "cc payment"}},
	{Category: "Loan Payment", Keywords: []string{"loan", "emi", "personal loan", "home loan"}},
	{Category: "Internet Bill", Keywords: []string{"internet", "broadband", "wifi", "airtel", "jio", "bsnl"}},
	{Category: "Phone Bill", Keywords: []string{"mobile", "phone", "recharge", "prepaid", "postpaid"}},
	{Category: "Water Bill", Keywords: []string{"water", "bwssb", "municipal"}},
	{Category: "Insurance", Keywords: []string{"insurance", "policy", "premium"}},
	{Category: "Food", Keywords: []string{"food", "restaurant", "cafe", "zomato", "swiggy", "domino"}},
	{Category: "Transport", Keywords: []string{"uber", "ola", "taxi", "auto", "metro", "bus"}},
	{Category: "Shopping", Keywords: []string{"shopping", "amazon", "flipkart", "myntra", "store"}},
	{Category: "Medical", Keywords: []string{"medical", "hospital", "pharmacy", "doctor", "medicine"}},
	{Category: "Rent", Keywords: []string{"rent", "house rent", "apartment"}},
}
