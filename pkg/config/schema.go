package config

// schema closes the config file. Every field is optional; Default fills the
// rest.
const schema = `
log?: close({
	level?:   "debug" | "info" | "warn" | "error"
	json?:    bool
	journal?: bool
})
optimizer?: close({
	constantFolding?: bool
	algebraic?:       bool
	deadCode?:        bool
	peephole?:        bool
	maxPasses?:       int & >=1 & <=64
})
limits?: close({
	maxExprs?:        int & >=1
	maxStmts?:        int & >=1
	maxRecursion?:    int & >=1
	maxLocalSlots?:   int & >=1
	maxInstructions?: int & >=1
	maxFunctions?:    int & >=1
})
vm?: close({
	maxCallDepth?:    int & >=1
	stackSize?:       int & >=16
	localsPerFrame?:  int & >=1
	maxInstructions?: int & >=0
})
preview?: close({
	addr?:         string
	width?:        int & >=1 & <=1024
	height?:       int & >=1 & <=1024
	fps?:          int & >=1 & <=120
	secret?:       string
	passwordHash?: string
	tokenTTL?:     string
})
`
