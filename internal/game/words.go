package game

// WordPairs is the fixed table a game draws its words from.
var WordPairs = []WordPair{
	{Civilian: "Ocean", Undercover: "Sea"},
	{Civilian: "Car", Undercover: "Bus"},
	{Civilian: "Apple", Undercover: "Orange"},
	{Civilian: "Book", Undercover: "Magazine"},
	{Civilian: "Coffee", Undercover: "Tea"},
	{Civilian: "Dog", Undercover: "Cat"},
	{Civilian: "Summer", Undercover: "Winter"},
	{Civilian: "Mountain", Undercover: "Hill"},
	{Civilian: "Piano", Undercover: "Guitar"},
	{Civilian: "Football", Undercover: "Basketball"},
}
