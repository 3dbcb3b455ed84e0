// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CareFacilityTable represents the 'care.facility' table
type CareFacilityTable struct {
	Table                 string
	ID                    string
	Name                  string
	IsActive              string
	SubscriptionStatus    string
	SubscriptionExpiresAt string
	CreatedAt             string
	UpdatedAt             string
}

// CareFacility is the schema definition for care.facility
var CareFacility = CareFacilityTable{
	Table:                 "care.facility",
	ID:                    "id",
	Name:                  "name",
	IsActive:              "isactive",
	SubscriptionStatus:    "subscriptionstatus",
	SubscriptionExpiresAt: "subscriptionexpiresat",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
}

// Columns returns all column names in scan order
func (t CareFacilityTable) Columns() []string {
	return []string{t.ID, t.Name, t.IsActive, t.SubscriptionStatus, t.SubscriptionExpiresAt, t.CreatedAt, t.UpdatedAt}
}
