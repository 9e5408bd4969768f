// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// ClusterAvailability classifies the solver fleet backlog. Higher value
// means more capacity to spare.
type ClusterAvailability int

const (
	ClusterVeryBusy  ClusterAvailability = 1
	ClusterBusy      ClusterAvailability = 2
	ClusterModerate  ClusterAvailability = 3
	ClusterAvailable ClusterAvailability = 4
)

func (c ClusterAvailability) String() string {
	switch c {
	case ClusterVeryBusy:
		return "very_busy"
	case ClusterBusy:
		return "busy"
	case ClusterModerate:
		return "moderate"
	case ClusterAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// SubscriptionScore is the caller tier resolved per knapsack id.
type SubscriptionScore int

const (
	SubscriptionStandard SubscriptionScore = 1
	SubscriptionPremium  SubscriptionScore = 2
)

func (s SubscriptionScore) String() string {
	switch s {
	case SubscriptionPremium:
		return "premium"
	case SubscriptionStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// Subscription names as reported by the external subscriptions service.
// The standard tier is historically named "Basic" there.
const (
	SubscriptionNameStandard = "Basic"
	SubscriptionNamePremium  = "Premium"
)

// ScoreForSubscriptionName maps an external subscription name to a tier.
// Unrecognized names resolve to the standard tier, never an error, so a
// new plan on the subscriptions side cannot break solving.
func ScoreForSubscriptionName(name string) SubscriptionScore {
	switch name {
	case SubscriptionNamePremium:
		return SubscriptionPremium
	case SubscriptionNameStandard:
		return SubscriptionStandard
	default:
		return SubscriptionStandard
	}
}
