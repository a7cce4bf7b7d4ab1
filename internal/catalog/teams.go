package catalog

// Default returns the compiled-in catalog of the eight staff teams.
//
// Permission strings are opaque identifiers consumed by guards and by the
// permission calculator; the descriptive fields exist for admin tooling and
// carry no behavior.
func Default() *Catalog {
	return MustNew(
		TeamDefinition{
			ID:          TeamSales,
			Name:        "Sales",
			Description: "Handles inbound leads and commercial accounts.",
			Responsibilities: []string{
				"Respond to inbound lead enquiries",
				"Manage commercial account relationships",
			},
			MemberPermissions: []string{
				"view_leads",
				"respond_to_leads",
			},
			ManagerPermissions: []string{
				"view_leads",
				"respond_to_leads",
				"assign_leads",
			},
		},
		TeamDefinition{
			ID:          TeamMarketing,
			Name:        "Marketing",
			Description: "Runs campaigns and promotional placements.",
			Responsibilities: []string{
				"Plan and execute campaigns",
				"Review promotional placements",
			},
			MemberPermissions: []string{
				"view_campaigns",
			},
			ManagerPermissions: []string{
				"view_campaigns",
				"manage_campaigns",
				"view_campaign_stats",
			},
		},
		TeamDefinition{
			ID:          TeamSupport,
			Name:        "Support",
			Description: "First line of contact for user issues.",
			Responsibilities: []string{
				"Answer support tickets",
				"Triage and escalate user issues",
			},
			MemberPermissions: []string{
				"view_tickets",
				"respond_to_tickets",
			},
			ManagerPermissions: []string{
				"view_tickets",
				"respond_to_tickets",
				"escalate_tickets",
				"view_support_stats",
			},
		},
		TeamDefinition{
			ID:          TeamModeration,
			Name:        "Moderation",
			Description: "Reviews reported listings and enforces content policy.",
			Responsibilities: []string{
				"Work the report queue",
				"Apply content policy decisions",
			},
			MemberPermissions: []string{
				"view_reports",
				"action_reports",
			},
			ManagerPermissions: []string{
				"view_reports",
				"action_reports",
				"ban_users",
				"view_moderation_stats",
			},
		},
		TeamDefinition{
			ID:          TeamBilling,
			Name:        "Billing",
			Description: "Handles invoicing, refunds and payment disputes.",
			Responsibilities: []string{
				"Process refunds and disputes",
				"Reconcile invoices",
			},
			MemberPermissions: []string{
				"view_invoices",
				"issue_refunds",
			},
			ManagerPermissions: []string{
				"view_invoices",
				"issue_refunds",
				"adjust_billing",
				"view_revenue_reports",
			},
		},
		TeamDefinition{
			ID:          TeamContent,
			Name:        "Content",
			Description: "Curates listing quality and editorial content.",
			Responsibilities: []string{
				"Review and edit listings",
				"Maintain editorial content",
			},
			MemberPermissions: []string{
				"edit_listings",
				"review_content",
			},
			ManagerPermissions: []string{
				"edit_listings",
				"review_content",
				"publish_content",
				"remove_content",
			},
		},
		TeamDefinition{
			ID:          TeamOperations,
			Name:        "Operations",
			Description: "Staff administration and internal tooling.",
			Responsibilities: []string{
				"Administer staff team membership",
				"Operate internal dashboards",
			},
			MemberPermissions: []string{
				"view_ops_dashboard",
			},
			ManagerPermissions: []string{
				"view_ops_dashboard",
				"manage_staff_roles",
				"view_staff_audit",
			},
		},
		TeamDefinition{
			ID:          TeamEngineering,
			Name:        "Engineering",
			Description: "Keeps the platform running.",
			Responsibilities: []string{
				"Monitor system health",
				"Run maintenance windows",
			},
			MemberPermissions: []string{
				"view_system_health",
			},
			ManagerPermissions: []string{
				"view_system_health",
				"manage_feature_flags",
				"run_maintenance",
			},
		},
	)
}
