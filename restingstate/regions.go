package restingstate

// Region metadata registration for the Desikan-Killiany parcellation.
// This file registers every region named in the ordering tables with
// its display title and anatomical lobe.

func init() {
	Register("bankssts",
		WithTitle("Banks of the Superior Temporal Sulcus"),
		WithLobe(LobeTemporal))

	Register("caudalanteriorcingulate",
		WithTitle("Caudal Anterior Cingulate"),
		WithLobe(LobeCingulate))

	Register("caudalmiddlefrontal",
		WithTitle("Caudal Middle Frontal"),
		WithLobe(LobeFrontal))

	Register("cuneus",
		WithTitle("Cuneus"),
		WithLobe(LobeOccipital))

	Register("entorhinal",
		WithTitle("Entorhinal Cortex"),
		WithLobe(LobeTemporal))

	Register("frontalpole",
		WithTitle("Frontal Pole"),
		WithLobe(LobeFrontal))

	Register("fusiform",
		WithTitle("Fusiform Gyrus"),
		WithLobe(LobeTemporal))

	Register("inferiorparietal",
		WithTitle("Inferior Parietal"),
		WithLobe(LobeParietal))

	Register("inferiortemporal",
		WithTitle("Inferior Temporal"),
		WithLobe(LobeTemporal))

	Register("insula",
		WithTitle("Insula"),
		WithLobe(LobeInsula))

	Register("isthmuscingulate",
		WithTitle("Isthmus of the Cingulate"),
		WithLobe(LobeCingulate))

	Register("lateraloccipital",
		WithTitle("Lateral Occipital"),
		WithLobe(LobeOccipital))

	Register("lateralorbitofrontal",
		WithTitle("Lateral Orbitofrontal"),
		WithLobe(LobeFrontal))

	Register("lingual",
		WithTitle("Lingual Gyrus"),
		WithLobe(LobeOccipital))

	Register("medialorbitofrontal",
		WithTitle("Medial Orbitofrontal"),
		WithLobe(LobeFrontal))

	Register("middletemporal",
		WithTitle("Middle Temporal"),
		WithLobe(LobeTemporal))

	Register("paracentral",
		WithTitle("Paracentral Lobule"),
		WithLobe(LobeFrontal))

	Register("parahippocampal",
		WithTitle("Parahippocampal Gyrus"),
		WithLobe(LobeTemporal))

	Register("parsopercularis",
		WithTitle("Pars Opercularis"),
		WithLobe(LobeFrontal))

	Register("parsorbitalis",
		WithTitle("Pars Orbitalis"),
		WithLobe(LobeFrontal))

	Register("parstriangularis",
		WithTitle("Pars Triangularis"),
		WithLobe(LobeFrontal))

	Register("pericalcarine",
		WithTitle("Pericalcarine Cortex"),
		WithLobe(LobeOccipital))

	Register("postcentral",
		WithTitle("Postcentral Gyrus"),
		WithLobe(LobeParietal))

	Register("posteriorcingulate",
		WithTitle("Posterior Cingulate"),
		WithLobe(LobeCingulate))

	Register("precentral",
		WithTitle("Precentral Gyrus"),
		WithLobe(LobeFrontal))

	Register("precuneus",
		WithTitle("Precuneus"),
		WithLobe(LobeParietal))

	Register("rostralanteriorcingulate",
		WithTitle("Rostral Anterior Cingulate"),
		WithLobe(LobeCingulate))

	Register("rostralmiddlefrontal",
		WithTitle("Rostral Middle Frontal"),
		WithLobe(LobeFrontal))

	Register("superiorfrontal",
		WithTitle("Superior Frontal"),
		WithLobe(LobeFrontal))

	Register("superiorparietal",
		WithTitle("Superior Parietal"),
		WithLobe(LobeParietal))

	Register("superiortemporal",
		WithTitle("Superior Temporal"),
		WithLobe(LobeTemporal))

	Register("supramarginal",
		WithTitle("Supramarginal Gyrus"),
		WithLobe(LobeParietal))

	Register("temporalpole",
		WithTitle("Temporal Pole"),
		WithLobe(LobeTemporal))

	Register("transversetemporal",
		WithTitle("Transverse Temporal"),
		WithLobe(LobeTemporal))
}
