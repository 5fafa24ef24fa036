package catalog

import id "propverify/pkg/domain"

var definitions = map[id.Role][]Category{
	id.RoleAgent: {
		{
			Key:  CategoryPersonal,
			Name: "Personal Identification",
			Types: []DocumentType{
				{ID: "government_id", Label: "Government-issued ID", Description: "Passport, driver's license, UMID or national ID", Required: true},
				{ID: "profile_photo", Label: "Profile Photo", Description: "Recent front-facing photo on a plain background", Required: true},
				{ID: "proof_of_address", Label: "Proof of Address", Description: "Utility bill or bank statement from the last three months"},
			},
		},
		{
			Key:  CategoryLegal,
			Name: "Professional License",
			Types: []DocumentType{
				{ID: "prc_license", Label: "PRC Real Estate License", Description: "Valid Professional Regulation Commission broker or salesperson ID", Required: true},
				{ID: "nbi_clearance", Label: "NBI Clearance", Description: "Clearance issued within the last six months"},
			},
		},
		{
			Key:  CategoryFinancial,
			Name: "Financial Records",
			Types: []DocumentType{
				{ID: "tin_certificate", Label: "TIN Certificate", Description: "BIR Form 1902 or 1904, or TIN ID"},
				{ID: "bank_certificate", Label: "Bank Certificate", Description: "Certificate of account for commission payouts"},
			},
		},
	},
	id.RoleDeveloper: {
		{
			Key:  CategoryLegal,
			Name: "Business Registration",
			Types: []DocumentType{
				{ID: "business_permit", Label: "Business Permit", Description: "Current mayor's or business permit", Required: true},
				{ID: "sec_registration", Label: "SEC Registration", Description: "Certificate of incorporation and articles", Required: true},
				{ID: "license_to_sell", Label: "License to Sell", Description: "DHSUD license to sell for active projects", Required: true},
			},
		},
		{
			Key:  CategoryFinancial,
			Name: "Financial Standing",
			Types: []DocumentType{
				{ID: "audited_financials", Label: "Audited Financial Statements", Description: "Most recent audited statements stamped by BIR", Required: true},
				{ID: "bir_registration", Label: "BIR Certificate of Registration", Description: "BIR Form 2303"},
			},
		},
		{
			Key:  CategoryProperty,
			Name: "Project Documents",
			Types: []DocumentType{
				{ID: "land_title", Label: "Land Title", Description: "Transfer certificate of title for a flagship project"},
				{ID: "development_permit", Label: "Development Permit", Description: "Permit issued by the local government unit"},
				{ID: "environmental_clearance", Label: "Environmental Compliance Certificate", Description: "DENR ECC for the project site"},
			},
		},
		{
			Key:  CategoryPersonal,
			Name: "Authorized Representative",
			Types: []DocumentType{
				{ID: "representative_id", Label: "Representative ID", Description: "Government ID of the authorized signatory", Required: true},
			},
		},
	},
}
