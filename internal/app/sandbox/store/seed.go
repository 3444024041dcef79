package store

import (
	"fmt"

	"mincadmin/internal/domain/record"
)

// SeedPassword is the password of every seeded admin account.
const SeedPassword = "sandbox-pass-1"

// Seed admin accounts.
const (
	SeedAdminID        = "MM12A34567"
	SeedAdminEmail     = "admin@vegu.me"
	SeedSuspendedID    = "MM12B00002"
	SeedSuspendedEmail = "ops@mihirmobile.com"
)

// Seed record ids.
const (
	SeedInstitutionID = "VG25001055"
	SeedSchoolID      = "VG25001060"
	SeedUserID        = "VG2500000101"
	SeedResponderID   = "VG25002001"
	SeedComplaintID   = "VGC25000001"
)

func seedDocs() map[record.Kind][]map[string]any {
	return map[record.Kind][]map[string]any{
		record.KindInstitution: {
			{
				"vg_id":                 SeedInstitutionID,
				"name":                  "Lone Star Logistics",
				"institution_type":      "Company/Workplace",
				"institution_category":  "Technology",
				"status":                "pending",
				"plan_type":             "free",
				"address1":              "500 Congress Ave",
				"city":                  "Austin",
				"state":                 "TX",
				"postal_code":           "78701",
				"country":               "United States",
				"complaint_email":       "report@lonestar.example",
				"primary_contact_name":  "Dana Ruiz",
				"primary_contact_email": "dana@lonestar.example",
				"admin_notes":           "",
				"updated_at":            "2025-09-01T12:00:00Z",
			},
			{
				"vg_id":               SeedSchoolID,
				"name":                "Riverside High School",
				"institutionType":     "Education",
				"institutionCategory": "Other - Charter School",
				"status":              "active",
				"planType":            "school district",
				"city":                "Sacramento",
				"state":               "CA",
				"country":             "United States",
				"complaintEmail":      "safety@riverside.example",
				"primaryContactName":  "Lee Park",
				"primaryContactPhone": "+1 916 555 0101",
				"websiteUrl":          "https://riverside.example",
				"adminNotes":          "[2025-08-01 10:00:00 UTC] MinC Admin: onboarded",
				"updatedAt":           "2025-08-01T10:00:00Z",
				"maxResponders":       5,
				"testing":             false,
			},
		},
		record.KindUser: {
			{
				"vg_id":             SeedUserID,
				"type":              "user_profile",
				"first_name":        "Sam",
				"last_name":         "Ortiz",
				"email":             "sam.ortiz@example.com",
				"institution_name":  "Riverside High School",
				"institution_vg_id": SeedSchoolID,
				"status":            "active",
				"dob":               "2007-04-12",
				"timezone":          "America/Los_Angeles",
			},
		},
		record.KindResponder: {
			{
				"vg_id":            SeedResponderID,
				"firstName":        "Jordan",
				"lastName":         "Blake",
				"email":            "jordan.blake@riverside.example",
				"institution_name": "Riverside High School",
				"institutionId":    SeedSchoolID,
				"phone":            "+1 916 555 0199",
				"country":          "United States",
				"department":       "Counseling",
				"status":           "active",
			},
		},
		record.KindComplaint: {
			{
				"vg_id":             SeedComplaintID,
				"subject":           "Bullying in the east wing",
				"display_subject":   "Bullying report",
				"institution_name":  "Riverside High School",
				"institution_vg_id": SeedSchoolID,
				"threat_level":      "medium",
				"threat_status":     "open",
				"last_updated":      "2025-09-02T08:30:00Z",
			},
		},
	}
}

// Seed loads the demo data set.
func Seed(records *Records, accounts *Accounts) error {
	for kind, docs := range seedDocs() {
		for _, doc := range docs {
			if _, err := records.Put(kind, doc); err != nil {
				return fmt.Errorf("seed %s: %w", kind, err)
			}
		}
	}
	if err := records.MapReporter(SeedComplaintID, SeedUserID); err != nil {
		return fmt.Errorf("seed reporter: %w", err)
	}
	if err := accounts.Add(SeedAdminID, SeedAdminEmail, SeedPassword, StatusActive); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := accounts.Add(SeedSuspendedID, SeedSuspendedEmail, SeedPassword, "suspended"); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
