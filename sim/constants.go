package sim

// Physical constants, CGS/MeV units throughout.
const (
	// ElectronMass is the electron rest energy m_e c^2 in MeV.
	ElectronMass = 0.51099895
	// ClassicalElectronRadius is r_e in cm.
	ClassicalElectronRadius = 2.8179403262e-13
	// ThomsonCrossSection is sigma_T = 8*pi/3 * r_e^2 in cm^2.
	ThomsonCrossSection = 6.6524587321e-25
	// FineStructure is the fine-structure constant alpha.
	FineStructure = 7.2973525693e-3
)
