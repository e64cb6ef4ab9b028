package models

// Tax relief categories a receipt can be assigned to.
const (
	CategoryLifestyle      = "Lifestyle Expenses"
	CategoryChildcare      = "Childcare"
	CategorySportEquipment = "Sport Equipment"
	CategoryDonations      = "Donations"
	CategoryMedical        = "Medical"
	CategoryEducation      = "Education"
)

// DefaultCategory is assigned when no keyword rule matches.
const DefaultCategory = CategoryLifestyle

// AvailableCategories lists every category in display order.
var AvailableCategories = []string{
	CategoryLifestyle,
	CategoryChildcare,
	CategorySportEquipment,
	CategoryDonations,
	CategoryMedical,
	CategoryEducation,
}

// IsKnownCategory reports whether name is one of AvailableCategories.
func IsKnownCategory(name string) bool {
	for _, c := range AvailableCategories {
		if c == name {
			return true
		}
	}
	return false
}
