package level

var builtinLevels = map[int]*Level{
	EasyLevelID: {
		ID:          EasyLevelID,
		Name:        "Easy",
		Description: "Walk around the wall to the flag",
		Objects: [][]int{
			{1, 1, 1, 1, 1, 1},
			{1, 2, 0, 0, 0, 1},
			{1, 0, 3, 1, 0, 1},
			{1, 0, 0, 1, 4, 1},
			{1, 1, 1, 1, 1, 1},
		},
	},
	NormalLevelID: {
		ID:          NormalLevelID,
		Name:        "Normal",
		Description: "Push the block out of the corridor to reach the flag",
		Objects: [][]int{
			{1, 1, 1, 1, 1, 1, 1},
			{1, 2, 0, 0, 1, 4, 1},
			{1, 0, 3, 0, 1, 0, 1},
			{1, 0, 0, 3, 0, 0, 1},
			{1, 1, 1, 0, 1, 1, 1},
			{1, 1, 1, 1, 1, 1, 1},
		},
	},
}
