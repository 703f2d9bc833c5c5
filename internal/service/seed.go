package service

import "github.com/stemsi/exstem-local/internal/model"

// DefaultCatalog returns the exams written to a fresh store. Each call returns
// a new slice so callers may modify it.
func DefaultCatalog() []model.Exam {
	return []model.Exam{
		{
			ID:           "1",
			Title:        "JavaScript Fundamentals",
			Description:  "Test your knowledge of JavaScript basics including variables, functions, and control structures.",
			Duration:     5,
			TotalPoints:  100,
			PassingScore: 70,
			IsActive:     true,
			CreatedAt:    "2024-01-15",
			CreatedBy:    "admin",
			Questions: []model.Question{
				{
					ID:            "q1",
					Question:      "What is the correct way to declare a variable in JavaScript?",
					Options:       []string{"var myVar;", "variable myVar;", "v myVar;", "declare myVar;"},
					CorrectAnswer: 0,
					Points:        10,
					Category:      "Variables",
				},
				{
					ID:            "q2",
					Question:      "Which method is used to add an element to the end of an array?",
					Options:       []string{"append()", "push()", "add()", "insert()"},
					CorrectAnswer: 1,
					Points:        10,
					Category:      "Arrays",
				},
				{
					ID:            "q3",
					Question:      `What does "===" operator do in JavaScript?`,
					Options:       []string{"Assignment", "Equality check", "Strict equality check", "Not equal"},
					CorrectAnswer: 2,
					Points:        10,
					Category:      "Operators",
				},
				{
					ID:            "q4",
					Question:      "How do you create a function in JavaScript?",
					Options:       []string{"function myFunction() {}", "create myFunction() {}", "def myFunction() {}", "func myFunction() {}"},
					CorrectAnswer: 0,
					Points:        10,
					Category:      "Functions",
				},
				{
					ID:            "q5",
					Question:      "What is the output of: console.log(typeof null)?",
					Options:       []string{"null", "undefined", "object", "boolean"},
					CorrectAnswer: 2,
					Points:        10,
					Category:      "Data Types",
				},
			},
		},
		{
			ID:           "2",
			Title:        "React Concepts",
			Description:  "Evaluate your understanding of React components, hooks, and state management.",
			Duration:     3,
			TotalPoints:  150,
			PassingScore: 75,
			IsActive:     true,
			CreatedAt:    "2024-01-20",
			CreatedBy:    "admin",
			Questions: []model.Question{
				{
					ID:            "q6",
					Question:      "What is JSX?",
					Options:       []string{"JavaScript XML", "Java Syntax Extension", "JSON XML", "JavaScript Extension"},
					CorrectAnswer: 0,
					Points:        15,
					Category:      "JSX",
				},
				{
					ID:            "q7",
					Question:      "Which hook is used for state management in functional components?",
					Options:       []string{"useEffect", "useState", "useContext", "useReducer"},
					CorrectAnswer: 1,
					Points:        15,
					Category:      "Hooks",
				},
				{
					ID:            "q8",
					Question:      "What is the virtual DOM?",
					Options:       []string{"A copy of the real DOM", "A JavaScript representation of the DOM", "A faster version of DOM", "All of the above"},
					CorrectAnswer: 3,
					Points:        15,
					Category:      "Virtual DOM",
				},
			},
		},
	}
}
