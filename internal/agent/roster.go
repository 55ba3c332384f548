package agent

// NewRoster builds the full fifteen-agent roster. Five agents carry live
// policies; the rest are named placeholders that hold teaching instructions
// and appear in status listings.
func NewRoster(deps PolicyDeps) []*Agent {
	return []*Agent{
		NewAgent("Edge Data Collector AI", "Data Collection",
			"Ingests raw telemetry from field sensors", nil),
		NewAgent("Environmental Analysis AI", "Environment",
			"Analyses temperature, humidity and air quality trends", nil),
		NewAgent("Occupancy & Presence AI", "Presence",
			"Tracks room occupancy from presence sensors", nil),
		NewAgent("Scheduling AI", "Scheduling",
			"Pre-conditions rooms for planned events and winds them down after",
			SchedulePolicy(deps)),
		NewAgent("Energy Optimization AI", "Optimization",
			"Cuts power to unoccupied rooms",
			OccupancyPolicy(deps)),
		NewAgent("Actuator Control AI", "Control",
			"Supervises device command dispatch", nil),
		NewAgent("Safety Monitoring AI", "Safety",
			"Locks rooms down on fire-risk temperatures",
			SafetyPolicy(deps)),
		NewAgent("Data Management AI", "Data",
			"Curates historical sensor data", nil),
		NewAgent("Reporting & Analytics AI", "Reporting",
			"Produces consumption and usage reports", nil),
		NewAgent("User Experience & Personalization AI", "UX",
			"Adapts comfort settings to occupant preferences", nil),
		NewAgent("Cybersecurity & Threat Detection AI", "Security",
			"Watches for anomalous control traffic", nil),
		NewAgent("Predictive Maintenance AI", "Maintenance",
			"Flags devices past their service interval",
			MaintenancePolicy(deps)),
		NewAgent("Global Optimization AI", "Global Optimization",
			"Caps site-wide power draw",
			LoadShedPolicy(deps)),
		NewAgent("Self-Learning AI", "Cognitive",
			"Accumulates operator teaching across the roster", nil),
		NewAgent("Enterprise Management AI", "Scale",
			"Coordinates multi-site deployments", nil),
	}
}
