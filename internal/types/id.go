// README: Opaque identifiers shared by rides, drivers and riders.
package types

type ID string

func (id ID) String() string { return string(id) }
