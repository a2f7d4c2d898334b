package nip

// The recovered operation names of the original engine. Effects are
// game-content specific and stay behind the host; the tables are the
// source of truth for mnemonics and the known-code check.

var ActionTable = []OpCode{
	{"noop", 0, "noop"},
	{"describe", 1, "describe current location"},
	{"moveperson", 2, "moveperson loc   move person to ref"},
	{"moveobject", 3, "moveobject loc   move object to ref"},
	{"opendoor", 4, "open the ref door"},
	{"closedoor", 5, "close the ref door"},
	{"take", 6, "pick up the ref object"},
	{"drop", 7, "drop the ref object"},
	{"wear", 8, "wear the ref object"},
	{"unwear", 9, "take off the ref object"},
	{"light", 10, "light the ref object"},
	{"douse", 11, "douse the ref object"},
	{"printobj", 12, "print the name of the ref object"},
	{"pause", 13, "wait one turn"},
	{"sound", 14, "play the ref sound"},
	{"quit", 15, "end the game"},
}

var TestTable = []OpCode{
	{"always", 0, "always true"},
	{"carrying", 1, "player carries the ref object"},
	{"present", 2, "ref object is in the current location"},
	{"dooropen", 3, "the ref door is open"},
	{"flagset", 4, "the ref flag is set"},
	{"samearea", 5, "ref person shares the player's location"},
	{"chance", 6, "true with probability ref/64"},
	{"wearing", 7, "player wears the ref object"},
	{"alive", 8, "the ref person is alive"},
	{"fieldzero", 9, "the ref field reads zero"},
}

var EditTable = []OpCode{
	{"setflag", 0, "set the ref flag"},
	{"clearflag", 1, "clear the ref flag"},
	{"setfield", 2, "write the ref field"},
	{"incfield", 3, "increment the ref field"},
	{"decfield", 4, "decrement the ref field"},
	{"setverb", 5, "override the current verb"},
	{"swapfield", 6, "exchange the ref field with the hold register"},
}
