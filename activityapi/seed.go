package activityapi

import "github.com/nomis52/activityboard/directory"

// DefaultActivities returns the directory a fresh server starts with.
func DefaultActivities() directory.Directory {
	return directory.New(
		directory.Activity{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		directory.Activity{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		directory.Activity{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
		directory.Activity{
			Name:            "Basketball Team",
			Description:     "Competitive basketball training and inter-school games",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 6:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"alex@mergington.edu"},
		},
		directory.Activity{
			Name:            "Soccer Club",
			Description:     "Outdoor soccer practice and friendly matches",
			Schedule:        "Wednesdays and Saturdays, 3:00 PM - 5:00 PM",
			MaxParticipants: 22,
			Participants:    []string{"liam@mergington.edu"},
		},
		directory.Activity{
			Name:            "Art Club",
			Description:     "Explore painting, drawing and mixed media",
			Schedule:        "Mondays, 3:30 PM - 5:00 PM",
			MaxParticipants: 18,
			Participants:    []string{"mia@mergington.edu"},
		},
		directory.Activity{
			Name:            "Drama Club",
			Description:     "Acting, stagecraft and school productions",
			Schedule:        "Thursdays, 4:00 PM - 6:00 PM",
			MaxParticipants: 20,
			Participants:    []string{"noah@mergington.edu"},
		},
		directory.Activity{
			Name:            "Debate Team",
			Description:     "Develop public speaking and argumentation skills",
			Schedule:        "Fridays, 4:00 PM - 5:30 PM",
			MaxParticipants: 16,
			Participants:    []string{},
		},
	)
}
