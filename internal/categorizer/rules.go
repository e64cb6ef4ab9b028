package categorizer

import "smarttax/receipt-ocr/internal/models"

// Keyword sets. They are matched as lowercase substrings.
var (
	MedicalKeywords   = []string{"clinic", "hospital", "pharmacy", "medical", "healthcare", "doctor", "guardian", "watson"}
	EducationKeywords = []string{"school", "college", "university", "education", "books", "stationery", "tuition", "popular"}
	SportKeywords     = []string{"sports", "fitness", "gym", "athletic", "decathlon"}
	ChildcareKeywords = []string{"childcare", "nursery", "kindergarten", "child care", "daycare"}
	DonationKeywords  = []string{"donation", "donate", "charity"}
)

// DefaultMerchantRules are checked against the merchant name, in order.
var DefaultMerchantRules = []KeywordRule{
	{Category: models.CategoryMedical, Keywords: MedicalKeywords},
	{Category: models.CategoryEducation, Keywords: EducationKeywords},
	{Category: models.CategorySportEquipment, Keywords: SportKeywords},
	{Category: models.CategoryChildcare, Keywords: ChildcareKeywords},
}

// DefaultItemRules are checked against each item description, in order,
// when no merchant rule matched. Donations only apply to items.
var DefaultItemRules = []KeywordRule{
	{Category: models.CategoryMedical, Keywords: MedicalKeywords},
	{Category: models.CategoryEducation, Keywords: EducationKeywords},
	{Category: models.CategoryDonations, Keywords: DonationKeywords},
}
