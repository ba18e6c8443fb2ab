package core

import (
	"sort"
	"strings"
	"unicode"
)

// Seeded category names. The storage migration inserts the same set.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryHousing       = "Housing"
	CategoryUtilities     = "Utilities"
	CategoryHealth        = "Health"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryEducation     = "Education"
	CategoryGifts         = "Gifts"
	CategoryOther         = "Other"

	CategorySalary      = "Salary"
	CategoryFreelance   = "Freelance"
	CategoryInvestments = "Investments"
	CategoryRefunds     = "Refunds"
	CategoryOtherIncome = "Other Income"
)

// categoryRule maps description keywords to a category. Higher priority wins
// when several rules match. Keywords match whole words, plurals included; a
// trailing "*" matches any word starting with the stem. Multi-word keywords
// match consecutive words.
type categoryRule struct {
	Category string
	Kind     TxType
	Keywords []string
	Priority int
}

var categoryRules = []categoryRule{
	{CategoryFood, Outcome, []string{"grocer*", "supermarket", "food", "restaurant", "cafe", "coffee", "lunch", "dinner", "breakfast", "pizza", "bakery"}, 10},
	{CategoryTransport, Outcome, []string{"taxi", "uber", "bus", "metro", "train", "fuel", "petrol", "gas station", "parking", "flight"}, 10},
	{CategoryHousing, Outcome, []string{"rent", "mortgage", "furniture", "repair*"}, 20},
	{CategoryUtilities, Outcome, []string{"electric*", "water bill", "internet", "phone", "mobile", "utilities", "heating"}, 15},
	{CategoryHealth, Outcome, []string{"pharmacy", "doctor", "dentist", "medicine", "hospital", "gym", "insurance"}, 10},
	{CategoryEntertainment, Outcome, []string{"cinema", "movie", "netflix", "spotify", "concert", "game", "subscription"}, 5},
	{CategoryShopping, Outcome, []string{"clothes", "shoe", "amazon", "electronics", "shopping"}, 5},
	{CategoryEducation, Outcome, []string{"course", "book", "tuition", "school", "university"}, 5},
	{CategoryGifts, Outcome, []string{"gift", "present", "birthday", "donation"}, 5},
	{CategorySalary, Income, []string{"salary", "payroll", "wage", "paycheck"}, 10},
	{CategoryFreelance, Income, []string{"freelance", "invoice", "contract", "consulting"}, 10},
	{CategoryInvestments, Income, []string{"dividend", "interest", "stock", "crypto"}, 10},
	{CategoryRefunds, Income, []string{"refund", "cashback", "reimburs*"}, 15},
}

func init() {
	sort.SliceStable(categoryRules, func(i, j int) bool {
		return categoryRules[i].Priority > categoryRules[j].Priority
	})
}

// DetectCategory guesses a category name from a free-text description.
// It returns "" when no keyword matches. Transfers are never categorized.
func DetectCategory(kind TxType, description string) string {
	if kind == Transfer {
		return ""
	}
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range categoryRules {
		if rule.Kind != kind {
			continue
		}
		for _, kw := range rule.Keywords {
			if containsPhrase(words, strings.Fields(kw)) {
				return rule.Category
			}
		}
	}
	return ""
}

func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		matched := true
		for j, kw := range phrase {
			if !wordMatches(words[i+j], kw) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func wordMatches(word, kw string) bool {
	if stem, ok := strings.CutSuffix(kw, "*"); ok {
		return strings.HasPrefix(word, stem)
	}
	return word == kw || word == kw+"s" || word == kw+"es"
}
