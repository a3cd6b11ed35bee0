// Package questionnaire implements the evergreen readiness assessment:
// a fixed five-category questionnaire scored per category on a 0-3
// scale per question.
package questionnaire

// Question is one assessment item. Descriptions map each answer value
// to the maturity it represents.
type Question struct {
	ID           string         `json:"id"`
	Text         string         `json:"text"`
	Descriptions map[int]string `json:"descriptions"`
}

// Category groups five questions under one readiness theme.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Recommendation is the guidance attached to a weak category.
type Recommendation struct {
	Diagnosis string   `json:"diagnosis"`
	Actions   []string `json:"actions"`
}

// Categories returns the questionnaire definition. The content is
// fixed; callers must not mutate the returned slice.
func Categories() []Category {
	return categories
}

var categories = []Category{
	{
		ID:   "retention",
		Name: "Retention rhythm",
		Questions: []Question{
			{
				ID:   "retention_1",
				Text: "Live cadence exists and is documented",
				Descriptions: map[int]string{
					0: "No live cadence or documentation exists",
					1: "Informal cadence exists but not documented",
					2: "Cadence is documented and followed consistently",
					3: "Cadence is documented, measured, and optimized based on data",
				},
			},
			{
				ID:   "retention_2",
				Text: "Event calendar covers at least six weeks",
				Descriptions: map[int]string{
					0: "No event calendar exists",
					1: "Events planned on ad hoc basis, less than two weeks ahead",
					2: "Calendar exists with at least six weeks of planned events",
					3: "Six week calendar exists and is visible to players",
				},
			},
			{
				ID:   "retention_3",
				Text: "Event types vary by effort and impact",
				Descriptions: map[int]string{
					0: "No events or all events are the same type",
					1: "One or two event types used inconsistently",
					2: "Three or more event types with different resource requirements",
					3: "Event mix is planned and measured for engagement impact",
				},
			},
			{
				ID:   "retention_4",
				Text: "Rewards or meta loop ties to events",
				Descriptions: map[int]string{
					0: "Events have no connection to progression systems",
					1: "Some events offer rewards but not tied to meta progression",
					2: "Event rewards connect to at least one meta progression system",
					3: "Event rewards drive measurable engagement in meta systems",
				},
			},
			{
				ID:   "retention_5",
				Text: "In game messaging explains what is new",
				Descriptions: map[int]string{
					0: "No in game messaging about updates or events",
					1: "Updates mentioned in general announcements only",
					2: "Dedicated messaging shows what is new when players log in",
					3: "Messaging is targeted based on player state and behavior",
				},
			},
		},
	},
	{
		ID:   "monetization",
		Name: "Monetization structure",
		Questions: []Question{
			{
				ID:   "monetization_1",
				Text: "Pricing ladder is clear with an anchor",
				Descriptions: map[int]string{
					0: "No clear pricing structure or single price point only",
					1: "Multiple prices exist but no clear value differentiation",
					2: "Pricing ladder with at least three tiers and value anchor",
					3: "Anchor drives measurable uplift in mid tier conversion",
				},
			},
			{
				ID:   "monetization_2",
				Text: "Purchases map to common use rhythms daily weekly monthly",
				Descriptions: map[int]string{
					0: "No time based purchase structure",
					1: "One or two offers but not aligned to usage patterns",
					2: "Offers exist for daily, weekly, or monthly purchase rhythms",
					3: "Offer timing is tested and optimized for each rhythm",
				},
			},
			{
				ID:   "monetization_3",
				Text: "Value clarity exists at point of sale",
				Descriptions: map[int]string{
					0: "Purchase UI shows price only with no value context",
					1: "Some value indicators but not consistent across offers",
					2: "All offers show clear value relative to base currency rate",
					3: "Value messaging tested and refined based on conversion data",
				},
			},
			{
				ID:   "monetization_4",
				Text: "Progression avoids hard stalls without purchase",
				Descriptions: map[int]string{
					0: "Players hit hard gates that require purchase to continue",
					1: "Progression slows significantly but has some free path",
					2: "Free players can progress at reasonable pace through content",
					3: "Progression pacing is measured and balanced for retention",
				},
			},
			{
				ID:   "monetization_5",
				Text: "Limited time offers avoid fatigue with spacing",
				Descriptions: map[int]string{
					0: "No limited offers or constant limited offers without breaks",
					1: "Limited offers used occasionally but no clear pattern",
					2: "Limited offers follow spacing rules to prevent fatigue",
					3: "Offer frequency and spacing tested for revenue and retention",
				},
			},
		},
	},
	{
		ID:   "reengagement",
		Name: "Re engagement and comeback paths",
		Questions: []Question{
			{
				ID:   "reengagement_1",
				Text: "Owned audience list exists email or push or in game inbox",
				Descriptions: map[int]string{
					0: "No owned audience channel exists",
					1: "Channel exists but opt in rate is below ten percent",
					2: "Channel exists with opt in rate above ten percent",
					3: "Multiple channels exist with high opt in and engagement rates",
				},
			},
			{
				ID:   "reengagement_2",
				Text: "Triggered messages respond to player behavior",
				Descriptions: map[int]string{
					0: "No triggered or behavior based messaging",
					1: "One or two generic messages sent on fixed schedule",
					2: "Messages trigger based on at least three player behaviors",
					3: "Triggered messages are tested and optimized for re engagement",
				},
			},
			{
				ID:   "reengagement_3",
				Text: "Returners receive a welcome back path",
				Descriptions: map[int]string{
					0: "No special treatment for returning players",
					1: "Generic message or reward for all returners",
					2: "Structured path with clear steps and reward for comeback",
					3: "Path varies by lapse duration and is measured for effectiveness",
				},
			},
			{
				ID:   "reengagement_4",
				Text: "Content vault allows rotation without new dev work",
				Descriptions: map[int]string{
					0: "All content is permanent or requires dev work to rotate",
					1: "Some content can be toggled but not systematically managed",
					2: "System exists to rotate content from vault without engineering",
					3: "Vault content is planned and measured for re engagement impact",
				},
			},
			{
				ID:   "reengagement_5",
				Text: "Win back offers are time bound and measured",
				Descriptions: map[int]string{
					0: "No win back offers exist",
					1: "Occasional offers sent to lapsed users without structure",
					2: "Win back offers trigger after specific lapse periods",
					3: "Offers are tested and measured for conversion and return rate",
				},
			},
		},
	},
	{
		ID:   "community",
		Name: "Community and channels",
		Questions: []Question{
			{
				ID:   "community_1",
				Text: "Known home base exists discord or site or forum",
				Descriptions: map[int]string{
					0: "No official community space exists",
					1: "Space exists but is not actively managed or promoted",
					2: "Active home base with regular posts and moderation",
					3: "Home base drives measurable word of mouth and retention",
				},
			},
			{
				ID:   "community_2",
				Text: "Announcements reach existing players and new prospects",
				Descriptions: map[int]string{
					0: "No regular announcement cadence or channel",
					1: "Announcements posted but reach is minimal",
					2: "Announcements reach both existing players and public channels",
					3: "Announcement reach and engagement are tracked and optimized",
				},
			},
			{
				ID:   "community_3",
				Text: "Creator kit exists with simple usage rights",
				Descriptions: map[int]string{
					0: "No assets or guidelines for creators",
					1: "Some assets exist but no clear usage terms",
					2: "Creator kit with logos, screenshots, and simple usage notes",
					3: "Kit is used by creators and usage is tracked",
				},
			},
			{
				ID:   "community_4",
				Text: "Social posts preview real value not features only",
				Descriptions: map[int]string{
					0: "No social presence or posts are feature lists only",
					1: "Posts describe features without showing player value",
					2: "Posts show specific player moments or outcomes from features",
					3: "Post format is tested and optimized for engagement and install",
				},
			},
			{
				ID:   "community_5",
				Text: "Community feedback appears in a visible change log",
				Descriptions: map[int]string{
					0: "No change log or feedback acknowledgment",
					1: "Updates mentioned but not tied to player feedback",
					2: "Change log exists and credits player suggestions",
					3: "Feedback loop is tracked and used to prioritize changes",
				},
			},
		},
	},
	{
		ID:   "optimization",
		Name: "Post launch optimization habits",
		Questions: []Question{
			{
				ID:   "optimization_1",
				Text: "A single owner reviews telemetry weekly",
				Descriptions: map[int]string{
					0: "No regular telemetry review or owner",
					1: "Data reviewed occasionally by multiple people",
					2: "One person owns weekly review with consistent format",
					3: "Review drives documented decisions and action items",
				},
			},
			{
				ID:   "optimization_2",
				Text: "A weekly test and learn cycle exists with a small backlog",
				Descriptions: map[int]string{
					0: "No test cadence or backlog",
					1: "Tests run occasionally but not on regular cycle",
					2: "Weekly test cycle exists with backlog of small experiments",
					3: "Test results inform next tests and are documented",
				},
			},
			{
				ID:   "optimization_3",
				Text: "Each change has a target metric",
				Descriptions: map[int]string{
					0: "Changes made without defined success criteria",
					1: "Some changes have goals but not consistently tracked",
					2: "All changes define target metric before implementation",
					3: "Metrics are reviewed post launch and inform future tests",
				},
			},
			{
				ID:   "optimization_4",
				Text: "A rollback plan is documented",
				Descriptions: map[int]string{
					0: "No rollback capability or plan",
					1: "Rollback possible but not documented or tested",
					2: "Rollback plan documented for all risky changes",
					3: "Rollback has been executed successfully at least once",
				},
			},
			{
				ID:   "optimization_5",
				Text: "A monthly retro captures wins and misses",
				Descriptions: map[int]string{
					0: "No regular retrospective or review",
					1: "Occasional reviews but not structured or documented",
					2: "Monthly retro with documented wins and lessons",
					3: "Retro insights drive changes to process and prioritization",
				},
			},
		},
	},
}

var recommendations = map[string]Recommendation{
	"retention": {
		Diagnosis: "Event rhythm needs structure to maintain consistent player engagement.",
		Actions: []string{
			"Publish a six week event calendar and pin it in game and on your home channel",
			"Add a small weekly event and a medium biweekly event to create reliable touch points",
		},
	},
	"monetization": {
		Diagnosis: "Pricing and offer structure lacks clarity or consistent value signals.",
		Actions: []string{
			"Add a value anchor that is clearly higher than your core offer to set context",
			"Map one pack to a weekly rhythm and one pack to a monthly rhythm and label them",
		},
	},
	"reengagement": {
		Diagnosis: "Comeback and win back systems are missing or underdeveloped.",
		Actions: []string{
			"Capture opt in for email or push inside the game and welcome new signups within one day",
			"Add a returner path with a simple three step checklist and a small reward",
		},
	},
	"community": {
		Diagnosis: "Community presence and creator support need more consistent execution.",
		Actions: []string{
			"Publish a creator kit with logo files simple usage notes and an example post",
			"Post a single clip that previews a real moment that a player gains next week",
		},
	},
	"optimization": {
		Diagnosis: "Regular testing and learning habits are not yet established.",
		Actions: []string{
			"Pick one weekly metric for the current focus retention or conversion and track it public to the team",
			"Run one change per week with a short hypothesis and a rollback note",
		},
	},
}

// RecommendationFor returns guidance for a category, with a generic
// fallback for unknown IDs.
func RecommendationFor(categoryID string) Recommendation {
	if rec, ok := recommendations[categoryID]; ok {
		return rec
	}
	return Recommendation{
		Diagnosis: "This area needs attention.",
		Actions:   []string{"Review current practices", "Establish regular review cadence"},
	}
}
