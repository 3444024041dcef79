package record

import (
	"slices"
	"strings"
)

const (
	FieldAdminNotes          = "admin_notes"
	FieldUpdatedAt           = "updated_at"
	FieldStatus              = "status"
	FieldPlanType            = "plan_type"
	FieldInstitutionType     = "institution_type"
	FieldInstitutionCategory = "institution_category"
	FieldDOB                 = "dob"
)

type FieldType string

const (
	TypeText      FieldType = "text"
	TypeEnum      FieldType = "enum"
	TypeDate      FieldType = "date"
	TypeComposite FieldType = "composite"
)

// OtherPrefix joins the "Other" choice of a composite field with its detail.
const OtherPrefix = "Other - "

type FieldSpec struct {
	Name     string
	Label    string
	Type     FieldType
	Editable bool
	Aliases  []string
	Options  []string
}

// Schema describes the fields of one record kind in display order.
type Schema struct {
	Kind   Kind
	Fields []FieldSpec
}

var (
	InstitutionStatuses = []string{"active", "pending", "locked", "expired", "suspended", "paymentdue"}
	UserStatuses        = []string{"active", "pending", "suspended", "under investigation", "expired"}
	ResponderStatuses   = []string{"active", "pending", "suspended", "locked", "expired"}
	PlanOptions         = []string{"free", "paid", "school district", "enterprise", "other"}

	EducationCategories = []string{"School", "College", "University", "Community College", "Training Institution", "Other"}
	WorkplaceCategories = []string{"Consulting Services", "Financial Services", "Healthcare", "Legal Services", "Manufacturing", "Retail", "Technology", "Other"}
)

func text(name, label string, editable bool, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Label: label, Type: TypeText, Editable: editable, Aliases: aliases}
}

func readonly(name, label string, aliases ...string) FieldSpec {
	return text(name, label, false, aliases...)
}

var schemas = map[Kind]Schema{
	KindInstitution: {Kind: KindInstitution, Fields: []FieldSpec{
		readonly("name", "Name"),
		readonly(FieldInstitutionType, "Type", "institutionType"),
		{Name: FieldInstitutionCategory, Label: "Category", Type: TypeComposite, Editable: true, Aliases: []string{"institutionCategory"}},
		{Name: FieldStatus, Label: "Status", Type: TypeEnum, Editable: true, Options: InstitutionStatuses},
		{Name: FieldPlanType, Label: "Plan", Type: TypeComposite, Editable: true, Aliases: []string{"planType"}, Options: PlanOptions},
		readonly("subscription_expiry", "Subscription expiry", "subscriptionExpiry"),
		text("address1", "Address 1", true),
		text("address2", "Address 2", true),
		text("city", "City", true),
		text("state", "State", true),
		text("postal_code", "Postal code", true, "postalCode"),
		readonly("country", "Country"),
		readonly("complaint_email", "Complaint email", "complaintEmail"),
		text("complaint_phone", "Complaint phone", true, "complaintPhone"),
		text("primary_contact_name", "Primary contact", true, "primaryContactName"),
		text("primary_contact_phone", "Primary contact phone", true, "primaryContactPhone"),
		text("primary_contact_email", "Primary contact email", true, "primaryContactEmail"),
		text("website_url", "Website", true, "websiteUrl", "websiteURL"),
		text("comment", "Comment", true),
		readonly("created_at", "Created", "createdAt"),
	}},
	KindUser: {Kind: KindUser, Fields: []FieldSpec{
		readonly("first_name", "First name", "firstName"),
		readonly("middle_name", "Middle name", "middleName"),
		readonly("last_name", "Last name", "lastName"),
		readonly("email", "Email"),
		readonly("email_verified", "Email verified", "emailVerified"),
		readonly("institution_name", "Institution", "institutionName"),
		readonly("institution_vg_id", "Institution ID", "institutionVgId"),
		readonly(FieldPlanType, "Plan", "planType"),
		readonly("complaint_email", "Complaint email", "complaintEmail"),
		{Name: FieldStatus, Label: "Status", Type: TypeEnum, Editable: true, Options: UserStatuses},
		{Name: FieldDOB, Label: "Date of birth", Type: TypeDate, Editable: true, Aliases: []string{"dateOfBirth"}},
		readonly("timezone", "Timezone"),
		readonly("created_at", "Created", "createdAt"),
		readonly("last_login", "Last login", "lastLogin"),
	}},
	KindResponder: {Kind: KindResponder, Fields: []FieldSpec{
		readonly("email", "Email"),
		readonly("institution_name", "Institution", "institutionName"),
		readonly("institution_id", "Institution ID", "institutionId"),
		text("first_name", "First name", true, "firstName"),
		text("middle_name", "Middle name", true, "middleName"),
		text("last_name", "Last name", true, "lastName"),
		text("phone", "Phone", true),
		text("country", "Country", true),
		text("department", "Department", true),
		{Name: FieldStatus, Label: "Status", Type: TypeEnum, Editable: true, Options: ResponderStatuses},
		readonly("timezone", "Timezone"),
		readonly("created_at", "Created", "createdAt"),
		readonly("last_login", "Last login", "lastLogin"),
	}},
	KindComplaint: {Kind: KindComplaint, Fields: []FieldSpec{
		readonly("subject", "Subject"),
		readonly("display_subject", "Display subject", "displaySubject"),
		readonly("institution_name", "Institution", "institutionName"),
		readonly("institution_vg_id", "Institution ID", "institutionVgId"),
		readonly("threat_level", "Threat level", "threatLevel"),
		readonly("threat_status", "Threat status", "threatStatus"),
		readonly(FieldStatus, "Status"),
		readonly("last_updated", "Last updated", "lastUpdated"),
		readonly("created_at", "Created", "createdAt"),
	}},
}

// SchemaFor returns the schema of kind.
func SchemaFor(kind Kind) (Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return Schema{}, ErrUnknownKind
	}
	return s, nil
}

// MustSchema is SchemaFor for kinds known at compile time.
func MustSchema(kind Kind) Schema {
	s, err := SchemaFor(kind)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Editable returns the allow-list of patchable fields in display order.
func (s Schema) Editable() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Editable {
			out = append(out, f.Name)
		}
	}
	return out
}

func (s Schema) IsEditable(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Editable
}

// OptionsFor returns the allowed values of field for rec. A nil result means
// the field is free-form for this record.
func (s Schema) OptionsFor(name string, rec Record) []string {
	f, ok := s.Field(name)
	if !ok {
		return nil
	}
	if s.Kind == KindInstitution && name == FieldInstitutionCategory {
		return CategoryOptions(rec.Get(FieldInstitutionType))
	}
	return f.Options
}

// CategoryOptions maps an institution_type to its category vocabulary. Stored
// types vary ("Education", "Educational Institution", "Company/Workplace").
func CategoryOptions(institutionType string) []string {
	t := strings.ToLower(institutionType)
	switch {
	case strings.HasPrefix(t, "educat"):
		return EducationCategories
	case strings.HasPrefix(t, "company"), strings.Contains(t, "workplace"):
		return WorkplaceCategories
	default:
		return nil
	}
}

// Valid reports whether value is acceptable for field against rec's options.
// Blank values and free-form fields are always valid.
func (s Schema) Valid(name, value string, rec Record) bool {
	f, ok := s.Field(name)
	if !ok {
		return false
	}
	options := s.OptionsFor(name, rec)
	if value == "" || options == nil {
		return true
	}
	if f.Type == TypeComposite {
		value, _ = SplitComposite(value)
	}
	return slices.ContainsFunc(options, func(o string) bool {
		return strings.EqualFold(o, value)
	})
}

// SplitComposite separates "Other - detail" into its base and detail.
func SplitComposite(value string) (base, detail string) {
	if strings.HasPrefix(value, OtherPrefix) {
		return "Other", value[len(OtherPrefix):]
	}
	return value, ""
}

// JoinComposite folds a detail into an "Other" base; any other base is kept
// as is and the detail dropped.
func JoinComposite(base, detail string) string {
	if strings.EqualFold(base, "other") {
		if d := strings.TrimSpace(detail); d != "" {
			return OtherPrefix + d
		}
	}
	return base
}
